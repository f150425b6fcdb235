package secret

import "errors"

var (
	ErrPINTooShort   = errors.New("PIN must be at least 4 digits")
	ErrPINNotNumeric = errors.New("PIN must contain digits only")
	ErrPINCommon     = errors.New("common PIN not allowed")
	ErrPINRepeated   = errors.New("all-same-digit PIN not allowed")
	ErrPINSequential = errors.New("sequential PIN not allowed")
)

var commonPINs = map[string]bool{
	"1212": true, "6969": true, "1122": true,
	"121212": true, "112233": true, "123123": true,
}

// CheckPINStrength rejects clear-sale PINs that are short, non-numeric, all
// one digit, sequential in either direction or on a known-weak list.
func CheckPINStrength(pin string) error {
	if len(pin) < 4 {
		return ErrPINTooShort
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrPINNotNumeric
		}
	}
	if commonPINs[pin] {
		return ErrPINCommon
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return ErrPINRepeated
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return ErrPINSequential
	}
	return nil
}
