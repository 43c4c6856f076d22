package utils

import (
	"crypto/rand"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ตัวอักษรที่ไม่สับสน (ไม่มี 0, O, l, 1)
const alphanumeric = "abcdefghjkmnpqrstuvwxyz23456789"

func GenerateRandomString(n int) string {
	result := make([]byte, n)
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphanumeric))))
		if err != nil {
			result[i] = alphanumeric[i%len(alphanumeric)]
			continue
		}
		result[i] = alphanumeric[num.Int64()]
	}
	return string(result)
}

// AvatarObjectKey เช่น avatars/<user-id>/my-photo-k3h9x2ab.png
func AvatarObjectKey(userID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "avatar"
	}
	if len(base) > 40 {
		base = strings.Trim(base[:40], "-")
	}
	return "avatars/" + userID.String() + "/" + base + "-" + GenerateRandomString(8) + ext
}
