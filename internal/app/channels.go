/**
 * @description
 * Mobile-money channel matching. Paystack's channel listing is dynamic, so the
 * provider for a payment method is located by classification over the fetched
 * list rather than a hardcoded code. Kept as a pure function, decoupled from
 * the HTTP call that produces the list, so it can be tested independently.
 */

package app

import (
	"strings"

	"github.com/chamapesa/wallet-service/internal/domain"
	"github.com/chamapesa/wallet-service/pkg/paystackclient"
)

// MatchMobileMoneyChannel locates the channel serving the given payment method
// in a fetched channel list. Matching is case-insensitive on the channel code
// (MPESA, ATL_KE) with a substring fallback on name and slug.
func MatchMobileMoneyChannel(channels []paystackclient.Bank, method string) (*paystackclient.Bank, bool) {
	for i := range channels {
		ch := &channels[i]
		code := strings.ToUpper(strings.TrimSpace(ch.Code))
		name := strings.ToLower(ch.Name)
		slug := strings.ToLower(ch.Slug)

		switch method {
		case domain.MethodMpesa:
			if code == "MPESA" ||
				strings.Contains(name, "mpesa") || strings.Contains(name, "m-pesa") ||
				strings.Contains(slug, "mpesa") || strings.Contains(slug, "m-pesa") {
				return ch, true
			}
		case domain.MethodAirtel:
			if code == "ATL_KE" ||
				strings.Contains(name, "airtel") || strings.Contains(slug, "airtel") {
				return ch, true
			}
		}
	}
	return nil, false
}
