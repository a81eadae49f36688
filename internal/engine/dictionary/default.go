package dictionary

import (
	"fmt"
	"slices"

	"github.com/crimson-sun/aspectflow/internal/model"
)

// Built-in preset names.
const (
	PresetCreativeProcess = "creative-process"
	PresetLearning        = "learning"
)

// DefaultCategories returns the dictionary used when no file or preset is
// configured.
func DefaultCategories() []model.Category {
	return creativeProcess()
}

// Preset returns the categories of a built-in dictionary by name.
func Preset(name string) ([]model.Category, error) {
	switch name {
	case PresetCreativeProcess:
		return creativeProcess(), nil
	case PresetLearning:
		return learning(), nil
	default:
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, name, Presets())
	}
}

// Presets lists the built-in dictionary names.
func Presets() []string {
	names := []string{PresetCreativeProcess, PresetLearning}
	slices.Sort(names)
	return names
}

// creativeProcess covers the stages of making a piece of art, as described
// by students in interviews.
func creativeProcess() []model.Category {
	return []model.Category{
		{Name: "靈感來源", Keywords: []string{"靈感", "啟發", "看到", "經驗", "感受", "回憶", "夢", "情緒"}},
		{Name: "主題發想", Keywords: []string{"主題", "想法", "構思", "討論", "內容", "概念"}},
		{Name: "資料蒐集", Keywords: []string{"查資料", "參考", "收集", "搜尋", "研究", "看作品", "問老師"}},
		{Name: "媒材技法", Keywords: []string{"技法", "媒材", "筆", "顏料", "色彩", "水彩", "油畫", "拼貼", "素描"}},
		{Name: "創作實作", Keywords: []string{"畫", "做", "創作", "製作", "完成", "處理", "加工", "組合"}},
		{Name: "修正與調整", Keywords: []string{"修改", "重畫", "重做", "調整", "改善", "失敗", "卡住"}},
		{Name: "自我評價", Keywords: []string{"覺得", "滿意", "不錯", "還好", "後悔", "反省", "學到"}},
	}
}

// learning covers the experience of taking an art course.
func learning() []model.Category {
	return []model.Category{
		{Name: "課程內容", Keywords: []string{"上課", "教學", "課程", "練習", "技巧", "作業", "練圖"}},
		{Name: "創作經驗", Keywords: []string{"創作", "靈感", "構圖", "發想", "畫畫", "表現", "表達"}},
		{Name: "老師互動", Keywords: []string{"老師", "指導", "建議", "鼓勵", "批評", "教", "回饋"}},
		{Name: "同儕互動", Keywords: []string{"同學", "討論", "合作", "一起", "朋友", "互相"}},
		{Name: "學習困難", Keywords: []string{"困難", "壓力", "不會", "卡住", "煩惱", "挫折"}},
		{Name: "成就與成長", Keywords: []string{"進步", "開心", "滿意", "學到", "收穫", "成就"}},
	}
}
