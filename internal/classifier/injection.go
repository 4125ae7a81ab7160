package classifier

import "regexp"

// DefaultInjectionThreshold is the probability at which the statistical
// model flags an injection.
const DefaultInjectionThreshold = 0.5

// Patterns match normalized text, so repeated letters are already folded
// ("all" arrives as "al", "bypass" as "bypas"). Each one needs wording
// aimed at the assistant's own instructions; bare terms such as "độc hại"
// also occur in admissions questions and are left to the model.
var injectionPatterns = []string{
	// Vietnamese
	`bỏ qua (mọi |tất cả |các )?(hướng dẫn|chỉ dẫn|lệnh|yêu cầu) (trước|trên|ở trên|phía trên)`,
	`bỏ qua phần (trên|trước)`,
	`lờ đi (hướng dẫn|chỉ dẫn|phần) (trước|trên)`,
	`quên (đi )?(hết |mọi |tất cả |các )?(hướng dẫn|chỉ dẫn|quy tắc|lệnh) (trước|trên|ở trên|phía trên|của bạn|hệ thống|đã được giao)`,
	`vượt qua (các |mọi )?(giới hạn|hạn chế|bộ lọc|kiểm duyệt|quy tắc)`,
	`phá vỡ (các |mọi )?(giới hạn|hạn chế|quy tắc)`,
	`(đóng vai|giả vờ là|giả làm|nhập vai)`,
	`tiết lộ .*(lời nhắc|prompt|hướng dẫn hệ thống|mật khẩu)`,
	`(tiêm nhiễm|tiêm|chèn) (câu lệnh|lệnh|prompt|mã lệnh)`,
	`(tạo|viết|sinh) (ra )?(nội dung|câu trả lời|phản hồi) độc hại`,
	`(trick|hack) ai`,
	// English
	`(ignore|disregard|forget) (al |any |the )?(previous|prior|above|earlier) (instructions|prompts|rules|mesages)`,
	`(override|bypas) (your |the )?(rules|instructions|filters|safety|restrictions)`,
	`(reveal|show|print|repeat) (me )?(your |the )?(system )?(prompt|instructions)`,
	`\byou are now\b`,
	`(pretend|act) (to be|as if|like you are)`,
	`(jailbreak|dan mode|developer mode)`,
}

// InjectionDetector flags prompt-injection attempts with a regex
// blocklist and, for text the blocklist misses, a logistic model.
type InjectionDetector struct {
	blocklist []*regexp.Regexp
	model     *LinearModel
	threshold float64
}

// NewInjectionDetector compiles the blocklist. model may be nil to run
// the blocklist alone.
func NewInjectionDetector(model *LinearModel, threshold float64) *InjectionDetector {
	if threshold <= 0 {
		threshold = DefaultInjectionThreshold
	}
	d := &InjectionDetector{model: model, threshold: threshold}
	for _, p := range injectionPatterns {
		d.blocklist = append(d.blocklist, regexp.MustCompile(`(?i)`+p))
	}
	return d
}

// MatchBlocklist reports whether any blocklist pattern occurs in text.
func (d *InjectionDetector) MatchBlocklist(text string) bool {
	for _, re := range d.blocklist {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Detect runs the blocklist, then the model. It returns the verdict and
// the model probability, which is 1 for blocklist hits.
func (d *InjectionDetector) Detect(text string) (bool, float64) {
	if d.MatchBlocklist(text) {
		return true, 1
	}
	if d.model == nil {
		return false, 0
	}
	p := d.model.Probability(text)
	return p >= d.threshold, p
}
