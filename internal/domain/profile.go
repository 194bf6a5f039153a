package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Key строит стабильный ключ кэша из нормализованных имени, должности и компании.
// Регистр и лишние пробелы не влияют на ключ; отсутствующие поля считаются пустыми.
// Отрасль и локация в ключ намеренно не входят: совпадение по трём полям
// трактуется как один и тот же профиль ради большей доли попаданий в кэш.
func (p Profile) Key() string {
	parts := []string{
		normalizeField(p.Name),
		normalizeField(p.Title),
		normalizeField(p.Company),
	}
	sum := md5.Sum([]byte(strings.Join(parts, "_")))
	return hex.EncodeToString(sum[:])
}

func normalizeField(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
