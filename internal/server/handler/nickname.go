package handler

import "math/rand/v2"

// 昵称词库
var (
	adjectives = []string{
		"勇敢的", "聪明的", "快乐的", "神秘的", "沉稳的",
		"机智的", "潇洒的", "淡定的", "闪亮的", "高冷的",
		"健忘的", "专注的", "狡猾的", "耐心的", "果断的",
	}

	nouns = []string{
		"骑士", "主教", "城堡", "皇后", "国王",
		"小兵", "棋手", "裁判", "大师", "特级大师",
	}
)

// GenerateNickname 生成随机昵称
func GenerateNickname() string {
	return adjectives[rand.IntN(len(adjectives))] + nouns[rand.IntN(len(nouns))]
}
