/**
 * @description
 * This file contains the withdrawal fee schedule. Fees are a pure, deterministic
 * function of (amount, payment method): mobile-money methods use tiered flat
 * fees that switch to a percentage above the top tier, bank transfers use a
 * floored percentage. Amounts are in KES major units.
 */

package app

import (
	"math"

	"github.com/chamapesa/wallet-service/internal/domain"
)

// WithdrawalFee returns the provider fee for withdrawing amount via method.
// Unknown methods carry no fee; they are rejected elsewhere before any money moves.
func WithdrawalFee(amount float64, method string) float64 {
	switch method {
	case domain.MethodMpesa:
		switch {
		case amount <= 100:
			return 0
		case amount <= 2500:
			return 15
		case amount <= 3500:
			return 25
		case amount <= 5000:
			return 30
		case amount <= 7500:
			return 45
		case amount <= 10000:
			return 50
		default:
			return math.Max(50, math.Floor(amount*0.005))
		}
	case domain.MethodAirtel:
		switch {
		case amount <= 100:
			return 0
		case amount <= 2500:
			return 15
		case amount <= 5000:
			return 30
		default:
			return math.Max(50, math.Floor(amount*0.005))
		}
	case domain.MethodBank:
		return math.Max(25, math.Floor(amount*0.001))
	default:
		return 0
	}
}
