// README: Transition table tests; no stores involved.
package parcel

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPending, StatusAccepted, true},
		{StatusAccepted, StatusPickedUp, true},
		{StatusPickedUp, StatusInTransit, true},
		{StatusPickedUp, StatusDelivered, true}, // confirm without tracking points
		{StatusInTransit, StatusDelivered, true},
		// expiry and re-open
		{StatusPending, StatusExpired, true},
		{StatusExpired, StatusPending, true},
		// disputes from active states
		{StatusPending, StatusDisputed, true},
		{StatusAccepted, StatusDisputed, true},
		{StatusPickedUp, StatusDisputed, true},
		{StatusInTransit, StatusDisputed, true},
		// invalid: skipping states
		{StatusPending, StatusPickedUp, false},
		{StatusPending, StatusDelivered, false},
		{StatusAccepted, StatusDelivered, false},
		// invalid: going backwards
		{StatusDelivered, StatusPending, false},
		{StatusPickedUp, StatusAccepted, false},
		// invalid: terminal states
		{StatusDelivered, StatusDisputed, false}, // conditional edge, not in the table
		{StatusDisputed, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusExpired, StatusAccepted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestActive(t *testing.T) {
	active := []Status{StatusPending, StatusAccepted, StatusPickedUp, StatusInTransit}
	for _, s := range active {
		if !(&Parcel{Status: s}).Active() {
			t.Errorf("%s should be active", s)
		}
	}
	terminal := []Status{StatusDelivered, StatusCancelled, StatusDisputed, StatusExpired}
	for _, s := range terminal {
		if (&Parcel{Status: s}).Active() {
			t.Errorf("%s should not be active", s)
		}
	}
}
