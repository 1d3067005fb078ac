// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import "encoding/json"

// envelope is the outbound wire shape (spec.md §4.2/§6.4): compact JSON,
// lowercase keys, a stable {component, type, data} field set.
type envelope struct {
	Component string         `json:"component"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
}

func formatEnvelope(component, typ string, data map[string]any) (string, error) {
	env := envelope{Component: component, Type: typ, Data: data}
	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func integrityClearEnvelope(component string, id int64) (string, error) {
	return formatEnvelope(component, TypeIntegrityClear, map[string]any{"id": id})
}

func integrityCheckGlobalEnvelope(component string, begin, end, checksum string, id int64) (string, error) {
	return formatEnvelope(component, TypeIntegrityCheckGlobal, map[string]any{
		"begin":    begin,
		"end":      end,
		"checksum": checksum,
		"id":       id,
	})
}

func integrityCheckLeftEnvelope(component string, ctx splitContext) (string, error) {
	return formatEnvelope(component, TypeIntegrityCheckLeft, map[string]any{
		"begin":    ctx.begin,
		"end":      ctx.end,
		"checksum": ctx.checksum,
		"id":       ctx.id,
		"tail":     ctx.tail,
	})
}

func integrityCheckRightEnvelope(component string, ctx splitContext) (string, error) {
	return formatEnvelope(component, TypeIntegrityCheckRight, map[string]any{
		"begin":    ctx.begin,
		"end":      ctx.end,
		"checksum": ctx.checksum,
		"id":       ctx.id,
	})
}

func stateEnvelope(component string, row Row, index string, cfg *Config) (string, error) {
	attrs := make(map[string]any, len(row.Columns))
	for _, col := range row.Columns {
		attrs[col] = row.Values[col]
	}
	return formatEnvelope(component, TypeState, map[string]any{
		"attributes": attrs,
		"index":      index,
		"timestamp":  row.Get(cfg.LastEvent),
	})
}
