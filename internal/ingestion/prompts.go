package ingestion

const splitterPrompt = `Bạn nhận được một đoạn văn bản markdown trích từ tài liệu tuyển sinh.
Hãy chia văn bản thành các phần nhỏ để dễ đọc. Mỗi phần gom một nhóm thông tin liên quan.
Chia thành càng nhiều phần càng tốt nhưng không được bỏ sót hay tóm tắt nội dung: giữ nguyên toàn bộ nội dung của mỗi phần.
Không bọc câu trả lời trong khối ` + "```json```" + `.
Trả lời đúng một đối tượng JSON theo cấu trúc:
{"sessions": [{"title": "tiêu đề 1", "content": "nội dung 1"}, {"title": "tiêu đề 2", "content": "nội dung 2"}]}
Tiêu đề và nội dung viết bằng tiếng Việt.`
