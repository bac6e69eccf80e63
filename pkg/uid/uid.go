package uid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New generates a new unique identifier.
func New() string {
	return uuid.New().String()
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// OfflineSaleID generates a client-side sale identifier in the form
// "offline_<timestamp>_<random>". The id doubles as the correlation token
// for server-side dedup, so it is assigned once and never reused.
func OfflineSaleID() string {
	random := strings.SplitN(uuid.New().String(), "-", 2)[0]
	return fmt.Sprintf("offline_%d_%s", time.Now().UnixMilli(), random)
}

// IsOfflineSaleID reports whether id follows the offline sale id format.
func IsOfflineSaleID(id string) bool {
	return strings.HasPrefix(id, "offline_")
}
