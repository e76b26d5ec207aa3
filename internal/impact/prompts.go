package impact

import (
	"fmt"
	"strings"
)

const verdictFormat = `Reply with one JSON object and nothing else:
{"result": "UP" | "DOWN" | "NEUTRAL", "explanation": "<reasoning>"}`

func factorsPrompt(company, news string) string {
	return fmt.Sprintf(`Read this news and name the three factors most likely to move the stock price of %s.
State each factor in one sentence that includes its reasoning.

News: %s

Reply with one JSON object and nothing else:
{"factor": ["<factor 1>", "<factor 2>", "<factor 3>"]}`, company, news)
}

func movementPrompt(prices string, newsDayTraded bool) string {
	days := `"pre-day": "<movement on the last session before the news>", "news-day": "<movement on the news day>", "post-day": "<movement on the next session>"`
	note := "The market traded on the news day."
	if !newsDayTraded {
		days = `"pre-day": "<movement on the last session before the news>", "post-day": "<movement on the next session>"`
		note = "The market was closed on the news day, so only the sessions before and after are available."
	}
	return fmt.Sprintf(`Describe in plain language how a stock moved around a news event. %s

Closing prices:
%s
Reply with one JSON object and nothing else:
{%s}`, note, prices, days)
}

type example struct {
	Company  string
	Factors  []string
	Movement string
}

func fewShotPrompt(company string, examples []example, newsFactors []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a financial analyst predicting how a news event will move the stock price of %s in the next few sessions.\n", company)
	if len(examples) > 0 {
		sb.WriteString("Here is how the market reacted to similar events in the past.\n")
		for i, ex := range examples {
			fmt.Fprintf(&sb, "\nExample %d\nCompany: %s\nSituation: %s\nPrice movement:\n%s\n", i+1, ex.Company, strings.Join(ex.Factors, " | "), ex.Movement)
		}
	}
	fmt.Fprintf(&sb, "\nThe current situation is shaped by these factors: %s\n\n%s", strings.Join(newsFactors, " | "), verdictFormat)
	return sb.String()
}

func relationsPrompt(company, news string, edges []string) string {
	return fmt.Sprintf(`A news article about %s may move its stock. These relation types exist for the company in a knowledge graph:
%s

Pick the relation types that matter most for judging the news impact.

News: %s

Reply with one JSON object and nothing else:
{"important_relations": ["<relation>", ...]}`, company, strings.Join(edges, ", "), news)
}

func summariseTriplesPrompt(triples string) string {
	return fmt.Sprintf(`Summarise these knowledge-graph facts, given as (source, relation, target) tuples, in a few clear sentences.

%s

Reply with one JSON object and nothing else:
{"summary": "<summary>"}`, triples)
}

func financialAnalysisPrompt(report string) string {
	return fmt.Sprintf(`Analyse these company financials and describe revenue and profit trends, growth, returns and cash generation.

%s

Reply with one JSON object and nothing else, with the keys "quarterly", "yearly", "cumulative" and "ttm", each holding a short analysis.`, report)
}

func refineWithFundamentalsPrompt(factors []string, initial verdictReply, background, financials string) string {
	return fmt.Sprintf(`An analyst expects the stock to move %s over the next 72 hours because of these factors: %s.
Their reasoning: %s

Weigh that view against the company's background and financials below and give your own prediction. Think it through step by step and keep the explanation short.

Background: %s
Financial analysis: %s

%s`, initial.Result, strings.Join(factors, " | "), initial.Explanation, background, financials, verdictFormat)
}

func priceSummaryPrompt(prices string) string {
	return fmt.Sprintf(`Summarise the recent movement of this Indian stock in two or three sentences.

Daily closes and indicators:
%s
Reply with one JSON object and nothing else:
{"summary": "<summary>"}`, prices)
}

func refineWithPricesPrompt(factors []string, prior verdictReply, recent string) string {
	return fmt.Sprintf(`Your colleague predicted, after studying the news factors (%s) and the company's fundamentals, that the stock will move %s over the next 72 hours because: %s

Here is how the stock traded over its last five sessions: %s

Give the final prediction. The explanation is shown to the investor who asked, so write it as a clear, friendly account of why the stock is likely to move this way, without referring to the colleague.

%s`, strings.Join(factors, " | "), prior.Result, prior.Explanation, recent, verdictFormat)
}
