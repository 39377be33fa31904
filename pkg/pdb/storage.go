/*
 * Copyright (c) ArtechDB, Inc.
 */

package pdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StorageValue is a MAX_PDB_STORAGE quota normalized to gigabytes, with an
// explicit "no limit" sentinel.
type StorageValue struct {
	Unlimited bool
	GB        float64
}

// UnlimitedStorage is the "no limit" sentinel.
var UnlimitedStorage = StorageValue{Unlimited: true}

// ParseStorage normalizes a raw MAX_PDB_STORAGE property value. Accepted
// forms: "UNLIMITED", a number suffixed with M, G or T, or a bare byte
// count. An empty value means the quota was never set and is unlimited.
func ParseStorage(raw string) (StorageValue, error) {
	v := strings.TrimSpace(strings.ToUpper(raw))
	if v == "" || v == "UNLIMITED" {
		return UnlimitedStorage, nil
	}

	unit := v[len(v)-1]
	number := v
	factor := 0.0
	switch unit {
	case 'G':
		number, factor = v[:len(v)-1], 1
	case 'M':
		number, factor = v[:len(v)-1], 1.0/1024
	case 'T':
		number, factor = v[:len(v)-1], 1024
	default:
		// Bare value, assume bytes.
		factor = 1.0 / (1 << 30)
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(number), 64)
	if err != nil {
		return StorageValue{}, errors.Errorf("unrecognized storage quota %q", raw)
	}
	return StorageValue{GB: n * factor}, nil
}

// Format renders the quota in gigabytes, e.g. "2.00G", or "UNLIMITED".
func (v StorageValue) Format() string {
	if v.Unlimited {
		return "UNLIMITED"
	}
	return fmt.Sprintf("%.2fG", v.GB)
}

// SufficientFor reports whether the quota can hold sizeGB of data. An
// unlimited quota holds anything.
func (v StorageValue) SufficientFor(sizeGB float64) bool {
	return v.Unlimited || v.GB >= sizeGB
}
