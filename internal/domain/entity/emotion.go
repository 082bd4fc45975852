package entity

// EmotionCategories is the fixed, ordered set of emotion labels the system
// works with. The classifier prompts for these labels and the report
// aggregator scans verdicts for them in this order, first match winning.
var EmotionCategories = []string{
	"Tích cực",
	"Tiêu cực",
	"Trung lập",
	"Hài hước",
	"Phẫn nộ",
	"Bất ngờ",
	"Buồn bã",
}

// EmotionUndetermined labels verdicts naming none of the known categories.
const EmotionUndetermined = "Không xác định"
