package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmynk/gradebook/internal/models"
)

// EncodeSnapshot renders snap as an indented JSON document.
func EncodeSnapshot(snap *models.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = models.EmptySnapshot()
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSnapshot parses a JSON document. It accepts the current object shape
// and the older bare array of students. Failures wrap ErrCorruptSnapshot.
func DecodeSnapshot(data []byte) (*models.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorruptSnapshot)
	}

	var snap models.Snapshot
	var err error
	if trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &snap.Students)
	} else {
		err = json.Unmarshal(trimmed, &snap)
	}
	if err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: syntax error at offset %d: %v", ErrCorruptSnapshot, syntaxErr.Offset, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	snap.Normalize()
	return &snap, nil
}
