package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"equityDayBot/internal/domain"
)

var candleHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// CandleFileName returns the conventional file name for a symbol's daily bars.
func CandleFileName(dir, symbol string) string {
	return filepath.Join(dir, strings.ToUpper(symbol)+"_1d.csv")
}

// WriteCandlesToCSV writes candles to filename, creating parent directories.
func WriteCandlesToCSV(candles []domain.Candle, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", filename, err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCandles(file, candles); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// WriteCandles writes a header row followed by one row per candle.
func WriteCandles(w io.Writer, candles []domain.Candle) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(candleHeader); err != nil {
		return err
	}
	for _, c := range candles {
		if err := writer.Write([]string{
			c.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCandlesFromCSV reads candles written by WriteCandlesToCSV.
func ReadCandlesFromCSV(filename string) ([]domain.Candle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	candles, err := ReadCandles(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return candles, nil
}

// ReadCandles parses candle rows. The header row is required.
func ReadCandles(r io.Reader) ([]domain.Candle, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(candleHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), candleHeader[0]) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var candles []domain.Candle
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		c, err := parseCandle(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseCandle(rec []string) (domain.Candle, error) {
	ts, err := parseTimestamp(rec[0])
	if err != nil {
		return domain.Candle{}, err
	}
	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("parsing %s '%s': %w", candleHeader[i+1], rec[i+1], err)
		}
		vals[i] = v
	}
	return domain.Candle{
		Timestamp: ts,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

// parseTimestamp accepts RFC3339 or a plain date.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp '%s': %w", s, err)
	}
	return t, nil
}
