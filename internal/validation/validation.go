// Package validation 纯函数校验，任何存储调用之前执行
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"Memeologia/internal/pkg"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinPasswordLen = 8
	MaxNameLen     = 64
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,}$`)
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// Email 校验 local@domain.tld 格式
func Email(s string) error {
	if !emailPattern.MatchString(s) {
		return pkg.Validation("email has an invalid format")
	}
	return nil
}

// Password 至少 8 位，包含大写字母和数字
func Password(s string) error {
	if utf8.RuneCountInString(s) < MinPasswordLen {
		return pkg.Validation("password must be at least 8 characters long")
	}
	if !strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return pkg.Validation("password must contain at least one uppercase letter")
	}
	if !strings.ContainsAny(s, "0123456789") {
		return pkg.Validation("password must contain at least one digit")
	}
	return nil
}

// Name 去掉首尾空白后非空且不超过 64 个字符
func Name(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", pkg.Validation("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return "", pkg.Validation("name must be at most 64 characters long")
	}
	return name, nil
}

// ObjectID 文档库标识：24 位十六进制
func ObjectID(s string) (primitive.ObjectID, error) {
	if !objectIDPattern.MatchString(s) {
		return primitive.NilObjectID, pkg.InvalidArgument("invalid id: " + strconv.Quote(s))
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, pkg.InvalidArgument("invalid id: " + strconv.Quote(s))
	}
	return id, nil
}

// AccountID 关系库标识：正整数
func AccountID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, pkg.InvalidArgument("invalid account id: " + strconv.Quote(s))
	}
	return id, nil
}
