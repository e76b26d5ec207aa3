package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fingreat/internal/types"
)

var mu sync.Mutex

const timeLayout = "2006-01-02 15:04:05"

// Entry is one order placed through the trading agent, live or simulated.
type Entry struct {
	Time          string          `json:"time"`
	User          string          `json:"user"`
	Symbol        string          `json:"symbol"`
	InstrumentKey string          `json:"instrument_key"`
	Side          string          `json:"side"`
	OrderType     string          `json:"order_type"`
	Qty           int             `json:"qty"`
	Price         decimal.Decimal `json:"price"`
	OrderID       string          `json:"order_id"`
	Status        string          `json:"status"`
	Message       string          `json:"message,omitempty"`
}

// FromOrder builds an entry from the request and the broker's reply.
func FromOrder(user string, req types.OrderReq, resp types.OrderResp) Entry {
	return Entry{
		User:          user,
		Symbol:        req.Symbol,
		InstrumentKey: req.InstrumentKey,
		Side:          req.Side,
		OrderType:     req.OrderType,
		Qty:           req.Qty,
		Price:         req.Price,
		OrderID:       resp.OrderID,
		Status:        resp.Status,
		Message:       resp.Message,
	}
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	d := t.In(types.IST).Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(types.IST)
	e.Time = now.Format(timeLayout)
	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// ReadDay returns the entries logged on day (IST), reading the gzipped file if the day was compressed.
func ReadDay(day time.Time) ([]Entry, error) {
	mu.Lock()
	defer mu.Unlock()

	p := dailyFilepath(day)
	var r io.Reader
	f, err := os.Open(p)
	switch {
	case err == nil:
		defer f.Close()
		r = f
	case errors.Is(err, fs.ErrNotExist):
		gf, gerr := os.Open(p + ".gz")
		if errors.Is(gerr, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		if gerr != nil {
			return nil, gerr
		}
		defer gf.Close()
		gz, gerr := gzip.NewReader(gf)
		if gerr != nil {
			return nil, fmt.Errorf("open %s.gz: %w", p, gerr)
		}
		defer gz.Close()
		r = gz
	default:
		return nil, err
	}

	out := []Entry{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("decode trade log line: %w", err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// ForUser filters entries down to one user's orders.
func ForUser(entries []Entry, user string) []Entry {
	out := []Entry{}
	for _, e := range entries {
		if e.User == user {
			out = append(out, e)
		}
	}
	return out
}

// CompressOlder gzips daily files last modified more than retentionDays ago.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			return fmt.Errorf("compress %s: %w", p, err)
		}
		return os.Remove(p)
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
