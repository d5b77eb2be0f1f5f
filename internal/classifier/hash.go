package classifier

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// ContentHash 计算邮件内容的去重指纹。
// 对 (主题, 正文, 报酬) 的定序拼接做 sha256，报酬为 0 时按空串处理。
func ContentHash(subject, body string, compensation int) string {
	comp := ""
	if compensation > 0 {
		comp = strconv.Itoa(compensation)
	}
	sum := sha256.Sum256([]byte(subject + body + comp))
	return hex.EncodeToString(sum[:])
}
