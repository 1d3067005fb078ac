// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package rsync

import "encoding/json"

// QueryTemplate is the `{row_filter, column_list, distinct_opt, order_by_opt}`
// structure named in spec.md §6.3. The `?` placeholders in RowFilter are
// substituted positionally by a Dataset Adapter: begin then end for range
// queries, or the index value for row-data queries.
type QueryTemplate struct {
	RowFilter   string `json:"row_filter"`
	ColumnList  string `json:"column_list"`
	DistinctOpt string `json:"distinct_opt,omitempty"`
	OrderByOpt  string `json:"order_by_opt,omitempty"`
}

// CountRangeQueryTemplate additionally carries count_field_name. Validation
// requires it, but neither bundled adapter reads it: both scan the count
// from the single column the count query returns.
type CountRangeQueryTemplate struct {
	QueryTemplate
	CountFieldName string `json:"count_field_name"`
}

// Config is the registration configuration described in spec.md §6.3.
// It is immutable once inserted into a Registration.
type Config struct {
	DecoderType       string                  `json:"decoder_type"`
	Table             string                  `json:"table"`
	Component         string                  `json:"component"`
	Index             string                  `json:"index"`
	LastEvent         string                  `json:"last_event"`
	ChecksumField     string                  `json:"checksum_field"`
	NoDataQuery       QueryTemplate           `json:"no_data_query_json"`
	CountRangeQuery   CountRangeQueryTemplate `json:"count_range_query_json"`
	RowDataQuery      QueryTemplate           `json:"row_data_query_json"`
	RangeChecksumQuery QueryTemplate          `json:"range_checksum_query_json"`
}

// ParseConfig decodes and validates a registration config from raw JSON
// (spec.md §4.5/§6.3). The only currently recognized decoder_type is
// DecoderTypeJSONRange.
func ParseConfig(raw []byte) (*Config, error) {
	if len(raw) == 0 {
		return nil, newArgError("config")
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, newConfigError("json", err.Error())
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DecoderType != DecoderTypeJSONRange {
		return newConfigError("decoder_type", "unrecognized decoder type: "+c.DecoderType)
	}
	if c.Table == "" {
		return newConfigError("table", "must not be empty")
	}
	if c.Component == "" {
		return newConfigError("component", "must not be empty")
	}
	if c.Index == "" {
		return newConfigError("index", "must not be empty")
	}
	if c.LastEvent == "" {
		return newConfigError("last_event", "must not be empty")
	}
	if c.ChecksumField == "" {
		return newConfigError("checksum_field", "must not be empty")
	}
	if c.NoDataQuery.RowFilter == "" && c.NoDataQuery.ColumnList == "" {
		return newConfigError("no_data_query_json", "must not be empty")
	}
	if c.CountRangeQuery.ColumnList == "" && c.CountRangeQuery.RowFilter == "" {
		return newConfigError("count_range_query_json", "must not be empty")
	}
	if c.CountRangeQuery.CountFieldName == "" {
		return newConfigError("count_range_query_json.count_field_name", "must not be empty")
	}
	if c.RowDataQuery.RowFilter == "" {
		return newConfigError("row_data_query_json", "must not be empty")
	}
	if c.RangeChecksumQuery.RowFilter == "" {
		return newConfigError("range_checksum_query_json", "must not be empty")
	}
	return nil
}
