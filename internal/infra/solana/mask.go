// internal/infra/solana/mask.go
package solana

import "strings"

// maskShort keeps log lines readable: "3DdK***8nhz".
func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
