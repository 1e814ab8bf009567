package service

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"

	"github.com/mannmitra/engage/internal/schema"
)

// fingerprintKeys 参与指纹计算的负载键白名单（固定字典序）。
// 白名单之外的键只用于展示，不影响去重。
var fingerprintKeys = []string{"exercise", "game", "mood", "quest_id", "title", "who5", "xp"}

// oncePerDaySentinel 每日一次类别的恒定指纹输入
const oncePerDaySentinel = `{"once":true}`

// fingerprintOf 计算活动指纹：对白名单键的规范化 JSON 投影做 SHA-1。
// 缺失键按 null 参与序列化，使“缺失”与“显式 null”得到同一指纹；
// encoding/json 对 map 键做字典序输出，序列化本身即规范形式。
func fingerprintOf(kind Kind, payload schema.JSONMap) string {
	blob := []byte(oncePerDaySentinel)
	if kind.Policy() != DedupeOncePerDay {
		key := make(map[string]interface{}, len(fingerprintKeys))
		for _, k := range fingerprintKeys {
			key[k] = nil
			if payload != nil {
				if v, ok := payload[k]; ok {
					key[k] = v
				}
			}
		}
		b, err := json.Marshal(key)
		if err != nil {
			// 负载里混入不可序列化的值：退化为恒定指纹，按每日一次处理
			b = []byte(oncePerDaySentinel)
		}
		blob = b
	}
	sum := sha1.Sum(blob)
	return hex.EncodeToString(sum[:])
}
