package services

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/paaster/internal/common"
)

// BurnAfterRead is the expiry value that requests one-shot consumption.
const BurnAfterRead = "b"

var expiryTTL = map[string]time.Duration{
	"10m": 10 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  3 * 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
}

// ParseExpires maps an expiry value to its TTL. Burn-after-read returns a
// zero TTL and burn == true. Anything outside the fixed set is ErrFormat.
func ParseExpires(expires string) (ttl time.Duration, burn bool, err error) {
	if expires == BurnAfterRead {
		return 0, true, nil
	}
	if d, ok := expiryTTL[expires]; ok {
		return d, false, nil
	}
	return 0, false, fmt.Errorf("%w: expires %q is invalid", common.ErrFormat, expires)
}
