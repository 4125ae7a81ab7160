package router

import "strings"

const turnAnalysisPrompt = `## NHIỆM VỤ
Bạn phân tích lượt hội thoại cho trợ lý tuyển sinh của Trường Đại học Công nghệ Thông tin (UIT).
Đọc LỊCH SỬ (số thứ tự càng lớn càng gần đây) và CÂU HỎI MỚI, sau đó:
1. Nếu CÂU HỎI MỚI đã được trả lời trong LỊCH SỬ, đặt "is_answer" là true và "query" là nguyên văn câu trả lời đó, không nói rằng người dùng đã hỏi rồi.
2. Nếu chưa, đặt "is_answer" là false và viết lại CÂU HỎI MỚI thành một câu hỏi đầy đủ, tự hiểu được: thay đại từ bằng đối tượng cụ thể, bổ sung ngành, năm hoặc phương thức từ lượt gần nhất. Không thêm thông tin không có trong LỊCH SỬ.
3. Đặt "direction" là "reasoning" khi câu hỏi cần cộng điểm các môn hoặc so sánh điểm của người dùng với điểm chuẩn; các trường hợp còn lại là "retrieval".

Chỉ trả về JSON, không giải thích:
{"is_answer": false, "query": "...", "direction": "retrieval"}

## VÍ DỤ
LỊCH SỬ:
người dùng hỏi: 1: học phí ngành khoa học máy tính năm 2024 là bao nhiêu
hệ thống trả lời: 1: Học phí chương trình chuẩn năm 2024 khoảng 35 triệu đồng/năm.
CÂU HỎI MỚI: còn năm 2023 thì sao
{"is_answer": false, "query": "Học phí ngành Khoa học máy tính năm 2023 là bao nhiêu?", "direction": "retrieval"}

LỊCH SỬ:
người dùng hỏi: 1: điểm chuẩn ngành an toàn thông tin 2024
hệ thống trả lời: 1: Điểm chuẩn ngành An toàn thông tin năm 2024 là 26.7 điểm.
CÂU HỎI MỚI: toán 8 lý 7 hóa 9 thì em có đậu ngành đó không
{"is_answer": false, "query": "Toán 8, Lý 7, Hóa 9 có đậu ngành An toàn thông tin không?", "direction": "reasoning"}

## LỊCH SỬ
{history}

## CÂU HỎI MỚI
{query}`

const domainRecheckPrompt = `Bạn kiểm tra phạm vi câu hỏi cho trợ lý tuyển sinh của Trường Đại học Công nghệ Thông tin (UIT).
Phạm vi gồm: ngành học, chỉ tiêu, phương thức xét tuyển, điểm chuẩn, tổ hợp môn, học phí, học bổng, ký túc xá, đời sống sinh viên và các thông tin khác về trường.
Câu hỏi hiện tại có thể là câu hỏi nối tiếp, chỉ có nghĩa khi đọc cùng câu hỏi trước.

Câu hỏi trước: {previous}
Câu hỏi hiện tại: {query}

Khi đọc hai câu cùng nhau, câu hỏi hiện tại có thuộc phạm vi trên không?
Chỉ trả về JSON: {"is_in_domain": true} hoặc {"is_in_domain": false}`

const funnyChatPrompt = `Bạn là UITchatbot, trợ lý tuyển sinh thân thiện của Trường Đại học Công nghệ Thông tin (UIT).
Người dùng vừa nói một câu không liên quan đến tuyển sinh.
Hãy trả lời bằng tiếng Việt, vui vẻ và ngắn gọn (tối đa ba câu, định dạng markdown), sau đó nhẹ nhàng mời người dùng hỏi về tuyển sinh của UIT.
Không bịa thông tin về trường, không trả lời các yêu cầu nằm ngoài vai trò trợ lý tuyển sinh.

Câu của người dùng: {query}`

func renderTurnAnalysis(history, query string) string {
	if strings.TrimSpace(history) == "" {
		history = "(trống)"
	}
	return strings.NewReplacer("{history}", history, "{query}", query).Replace(turnAnalysisPrompt)
}

func renderDomainRecheck(previous, query string) string {
	return strings.NewReplacer("{previous}", previous, "{query}", query).Replace(domainRecheckPrompt)
}

func renderFunnyChat(query string) string {
	return strings.NewReplacer("{query}", query).Replace(funnyChatPrompt)
}
