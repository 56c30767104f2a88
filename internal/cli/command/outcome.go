package command

import (
	"github.com/yndnr/dirmesh-go/internal/core/domain"
)

// Outcome returns the line printed for a reply to op and whether it is a
// success.
func Outcome(op domain.Op, st domain.Status) (string, bool) {
	name := op.String()
	if st == domain.StatusOK {
		return name + " OK", true
	}

	switch {
	case op == domain.OpRegister && st == domain.StatusAlreadyExists:
		return "USERNAME IN USE", false
	case op == domain.OpUnregister && st == domain.StatusNotRegistered:
		return "USER DOES NOT EXIST", false
	case op == domain.OpRegister || op == domain.OpUnregister:
		return name + " FAIL", false
	}

	switch st {
	case domain.StatusNotRegistered:
		return name + " FAIL, USER DOES NOT EXIST", false
	case domain.StatusNotConnected:
		return name + " FAIL, USER NOT CONNECTED", false
	case domain.StatusAlreadyConnected:
		return name + " FAIL, USER ALREADY CONNECTED", false
	case domain.StatusAlreadyExists:
		if op == domain.OpPublish {
			return name + " FAIL, CONTENT ALREADY PUBLISHED", false
		}
	case domain.StatusNotFound:
		if op == domain.OpDelete {
			return name + " FAIL, CONTENT NOT PUBLISHED", false
		}
	}
	return name + " FAIL", false
}
