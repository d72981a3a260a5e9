// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package utils

import "strconv"

// Option carries free-form provider overrides keyed by dotted names
// ("speak.voice.id", "transcribe.language", …). Values come from config or
// the caller, so getters coerce loosely and fall back to the default.
type Option map[string]interface{}

func (o Option) GetString(key, def string) string {
	v, ok := o[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return def
	}
	return s
}

func (o Option) GetInt(key string, def int) int {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch vl := v.(type) {
	case int:
		return vl
	case int64:
		return int(vl)
	case float64:
		return int(vl)
	case string:
		if n, err := strconv.Atoi(vl); err == nil {
			return n
		}
	}
	return def
}

func (o Option) GetFloat(key string, def float64) float64 {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch vl := v.(type) {
	case float64:
		return vl
	case float32:
		return float64(vl)
	case int:
		return float64(vl)
	case string:
		if f, err := strconv.ParseFloat(vl, 64); err == nil {
			return f
		}
	}
	return def
}
