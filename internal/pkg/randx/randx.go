/*
Package randx provides functions for generating cryptographically secure random identifiers.

It is primarily used to generate guest identities and nicknames for anonymous sessions,
and standard UUID message IDs for persisted chat messages.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// GuestIDPrefix is the prefix carried by every generated guest identity.
	GuestIDPrefix = "guest_"

	// GuestIDRawLength is the fixed length of the Base62 part of a guest identity.
	GuestIDRawLength = 8

	// GuestNamePrefix is the prefix of generated guest display names.
	GuestNamePrefix = "Guest_"

	// GuestNameRawLength is the fixed length of the Base62 part of a guest name.
	GuestNameRawLength = 6
)

// base62String generates a Base62 string of the given length using crypto/rand.
func base62String(length int) (string, error) {
	result := make([]byte, length)

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// GuestID generates a guest identity of the form "guest_XXXXXXXX".
func GuestID() (string, error) {
	raw, err := base62String(GuestIDRawLength)
	if err != nil {
		return "", err
	}
	return GuestIDPrefix + raw, nil
}

// GuestNickname generates a guest display name of the form "Guest_XXXXXX".
func GuestNickname() (string, error) {
	raw, err := base62String(GuestNameRawLength)
	if err != nil {
		return "", err
	}
	return GuestNamePrefix + raw, nil
}

// IsGuestID checks whether the given identity was generated by GuestID.
func IsGuestID(id string) bool {
	if !strings.HasPrefix(id, GuestIDPrefix) {
		return false
	}

	raw := id[len(GuestIDPrefix):]
	if len(raw) != GuestIDRawLength {
		return false
	}

	for _, char := range raw {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}
