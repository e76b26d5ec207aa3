package instruments

// nifty50 is the tradeable universe: NSE symbol, knowledge-graph node, Upstox key and news-feed codes.
var nifty50 = []Instrument{
	{Symbol: "HDFCBANK", Name: "HDFC Bank Limited", Key: "NSE_EQ|INE040A01034", NewsCodes: []string{"HDBK", "HDFC"}},
	{Symbol: "RELIANCE", Name: "Reliance Industries Limited", Key: "NSE_EQ|INE002A01018", NewsCodes: []string{"RELI"}},
	{Symbol: "ICICIBANK", Name: "ICICI Bank Limited", Key: "NSE_EQ|INE090A01021", NewsCodes: []string{"ICBK"}},
	{Symbol: "INFY", Name: "Infosys Limited", Key: "NSE_EQ|INE009A01021", NewsCodes: []string{"INFY"}},
	{Symbol: "ITC", Name: "ITC Limited", Key: "NSE_EQ|INE154A01025", NewsCodes: []string{"ITC"}},
	{Symbol: "BHARTIARTL", Name: "Bharti Airtel Limited", Key: "NSE_EQ|INE397D01024", NewsCodes: []string{"BRTI"}},
	{Symbol: "TCS", Name: "Tata Consultancy Services", Key: "NSE_EQ|INE467B01029", NewsCodes: []string{"TCS"}},
	{Symbol: "LT", Name: "Larsen & Toubro Limited", Key: "NSE_EQ|INE018A01030", NewsCodes: []string{}},
	{Symbol: "AXISBANK", Name: "Axis Bank Limited", Key: "NSE_EQ|INE238A01034", NewsCodes: []string{"AXBK"}},
	{Symbol: "SBIN", Name: "State Bank of India", Key: "NSE_EQ|INE062A01020", NewsCodes: []string{"SBI"}},
	{Symbol: "M&M", Name: "Mahindra & Mahindra Limited", Key: "NSE_EQ|INE101A01026", NewsCodes: []string{"MAHM"}},
	{Symbol: "KOTAKBANK", Name: "Kotak Mahindra Bank Limited", Key: "NSE_EQ|INE237A01028", NewsCodes: []string{"KTKM"}},
	{Symbol: "HINDUNILVR", Name: "Hindustan Unilever Limited", Key: "NSE_EQ|INE030A01027", NewsCodes: []string{"HLL"}},
	{Symbol: "BAJFINANCE", Name: "Bajaj Finance Limited", Key: "NSE_EQ|INE296A01024", NewsCodes: []string{"BJFS"}},
	{Symbol: "NTPC", Name: "NTPC Limited", Key: "NSE_EQ|INE733E01010", NewsCodes: []string{"NTPC"}},
	{Symbol: "SUNPHARMA", Name: "Sun Pharmaceutical Industries Ltd", Key: "NSE_EQ|INE044A01036", NewsCodes: []string{"SUN"}},
	{Symbol: "TATAMOTORS", Name: "Tata Motors Limited", Key: "NSE_EQ|INE155A01022", NewsCodes: []string{"TAMO", "TAMdv"}},
	{Symbol: "HCLTECH", Name: "HCLTech", Key: "NSE_EQ|INE860A01027", NewsCodes: []string{"HCLT"}},
	{Symbol: "MARUTI", Name: "Maruti Suzuki India Limited", Key: "NSE_EQ|INE585B01010", NewsCodes: []string{"MRTI"}},
	{Symbol: "TRENT", Name: "Trent Limited", Key: "NSE_EQ|INE849A01020", NewsCodes: []string{}},
	{Symbol: "POWERGRID", Name: "Power Grid Corporation of India Limited", Key: "NSE_EQ|INE752E01010", NewsCodes: []string{}},
	{Symbol: "TITAN", Name: "Titan Company Limited", Key: "NSE_EQ|INE280A01028", NewsCodes: []string{"TITN"}},
	{Symbol: "ASIANPAINT", Name: "Asian Paints Limited", Key: "NSE_EQ|INE021A01026", NewsCodes: []string{"ASPN"}},
	{Symbol: "TATASTEEL", Name: "Tata Steel Limited", Key: "NSE_EQ|INE081A01020", NewsCodes: []string{"TISC"}},
	{Symbol: "BAJAJ-AUTO", Name: "Bajaj Auto Limited", Key: "NSE_EQ|INE917I01010", NewsCodes: []string{"BAJA"}},
	{Symbol: "ULTRACEMCO", Name: "UltraTech Cement Limited", Key: "NSE_EQ|INE481G01011", NewsCodes: []string{"ULTC"}},
	{Symbol: "COALINDIA", Name: "Coal India Limited", Key: "NSE_EQ|INE522F01014", NewsCodes: []string{"COAL"}},
	{Symbol: "ONGC", Name: "Oil & Natural Gas Corporation (ONGC)", Key: "NSE_EQ|INE213A01029", NewsCodes: []string{"ONGC"}},
	{Symbol: "HINDALCO", Name: "Hindalco Industries Limited", Key: "NSE_EQ|INE038A01020", NewsCodes: []string{"HALC"}},
	{Symbol: "BAJAJFINSV", Name: "Bajaj Finserv Limited", Key: "NSE_EQ|INE918I01026", NewsCodes: []string{"BJFN"}},
	{Symbol: "ADANIPORTS", Name: "Adani Ports & SEZ", Key: "NSE_EQ|INE742F01042", NewsCodes: []string{"APSE"}},
	{Symbol: "GRASIM", Name: "Grasim Industries Limited", Key: "NSE_EQ|INE047A01021", NewsCodes: []string{"GRAS"}},
	{Symbol: "BEL", Name: "Bharat Electronics Limited", Key: "NSE_EQ|INE263A01024", NewsCodes: []string{}},
	{Symbol: "SHRIRAMFIN", Name: "Shriram Finance Limited", Key: "NSE_EQ|INE721A01047", NewsCodes: []string{}},
	{Symbol: "TECHM", Name: "Tech Mahindra", Key: "NSE_EQ|INE669C01036", NewsCodes: []string{}},
	{Symbol: "JSWSTEEL", Name: "JSW Steel", Key: "NSE_EQ|INE019A01038", NewsCodes: []string{"JSTL"}},
	{Symbol: "NESTLEIND", Name: "Nestlé India Limited", Key: "NSE_EQ|INE239A01024", NewsCodes: []string{"NEST"}},
	{Symbol: "INDUSINDBK", Name: "IndusInd Bank", Key: "NSE_EQ|INE095A01012", NewsCodes: []string{}},
	{Symbol: "CIPLA", Name: "Cipla Limited", Key: "NSE_EQ|INE059A01026", NewsCodes: []string{"CIPL"}},
	{Symbol: "SBILIFE", Name: "SBI Life Insurance Company Limited", Key: "NSE_EQ|INE123W01016", NewsCodes: []string{"SBIL"}},
	{Symbol: "DRREDDY", Name: "Dr. Reddy's Laboratories", Key: "NSE_EQ|INE089A01031", NewsCodes: []string{"REDY"}},
	{Symbol: "TATACONSUM", Name: "Tata Consumer Products", Key: "NSE_EQ|INE192A01025", NewsCodes: []string{"TACN"}},
	{Symbol: "HDFCLIFE", Name: "HDFC Life Insurance Company Limited", Key: "NSE_EQ|INE795G01014", NewsCodes: []string{}},
	{Symbol: "WIPRO", Name: "Wipro", Key: "NSE_EQ|INE075A01022", NewsCodes: []string{"WIPR"}},
	{Symbol: "ADANIENT", Name: "Adani Enterprises Limited", Key: "NSE_EQ|INE423A01024", NewsCodes: []string{}},
	{Symbol: "HEROMOTOCO", Name: "Hero MotoCorp", Key: "NSE_EQ|INE158A01026", NewsCodes: []string{"HROM"}},
	{Symbol: "BRITANNIA", Name: "Britannia Industries Limited", Key: "NSE_EQ|INE216A01030", NewsCodes: []string{"BRIT"}},
	{Symbol: "APOLLOHOSP", Name: "Apollo Hospitals Enterprise Ltd", Key: "NSE_EQ|INE437A01024", NewsCodes: []string{"APLH"}},
	{Symbol: "BPCL", Name: "BPCL", Key: "NSE_EQ|INE029A01011", NewsCodes: []string{"BPCL"}},
	{Symbol: "EICHERMOT", Name: "Eicher Motors", Key: "NSE_EQ|INE066A01021", NewsCodes: []string{"EICH"}},
}
