package checkout

// Readiness is the set of conditions that disable the submit control.
type Readiness struct {
	CartEmpty       bool
	NotSignedIn     bool
	MissingAddress  bool
	NoClientToken   bool
	NoPaymentMethod bool
	InFlight        bool
}

// Ready reports whether nothing blocks submission.
func (r Readiness) Ready() bool {
	return len(r.Reasons()) == 0
}

// Reasons names each blocking condition.
func (r Readiness) Reasons() []string {
	var out []string
	if r.CartEmpty {
		out = append(out, "cart_empty")
	}
	if r.NotSignedIn {
		out = append(out, "not_signed_in")
	}
	if r.MissingAddress {
		out = append(out, "missing_address")
	}
	if r.NoClientToken {
		out = append(out, "no_client_token")
	}
	if r.NoPaymentMethod {
		out = append(out, "no_payment_method")
	}
	if r.InFlight {
		out = append(out, "in_flight")
	}
	return out
}
