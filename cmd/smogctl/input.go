package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// readCollectorRecords parses collector output, either a JSON array or one
// JSON object per line, and rolls the hourly readings up to daily values.
func readCollectorRecords(r io.Reader) ([]domain.DistrictObservation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	records, err := splitRecords(data)
	if err != nil {
		return nil, err
	}

	hourly := make([]domain.DistrictObservation, 0, len(records))
	for i, rec := range records {
		obs, err := domain.ParseRawEvent(domain.RawEvent{Value: rec})
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		hourly = append(hourly, obs)
	}
	return domain.RollupDaily(hourly), nil
}

func splitRecords(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode record array: %w", err)
		}
		return records, nil
	}

	var records []json.RawMessage
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		records = append(records, json.RawMessage(bytes.Clone(line)))
	}
	return records, sc.Err()
}

// readFires parses a JSON array of FIRMS detections.
func readFires(r io.Reader) ([]domain.FireDetection, error) {
	var fires []domain.FireDetection
	if err := json.NewDecoder(r).Decode(&fires); err != nil {
		return nil, fmt.Errorf("decode fire detections: %w", err)
	}
	return fires, nil
}
