package pickers

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	freeTextPolicyOnce sync.Once
	freeTextPolicy     *bluemonday.Policy
)

// sanitizeFreeText strips markup from user-typed values before they are
// echoed back.
func sanitizeFreeText(raw string) string {
	freeTextPolicyOnce.Do(func() {
		freeTextPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(freeTextPolicy.Sanitize(raw))
}
