package annotate

// systemPrompt fixes the output to a bare JSON object with three keys and
// the localized value domains.
const systemPrompt = "你是一位专业的半导体行业新闻分析师，为中国半导体公司的营销高管服务。" +
	"请分析文章内容，并仅返回一个JSON对象，包含以下键值对：" +
	"'sentiment' (情绪分析，必须是以下之一：利好 / 中立 / 利弊)，" +
	"'summary' (中文简要摘要，不超过80字)，" +
	"'relevant' (相关性，必须是：是 或 否 - 该信息是否对中国半导体公司营销高管有用)。" +
	"请确保返回格式严格为JSON，不要包含任何其他文本、分析或markdown格式。" +
	"摘要必须是有意义的中文内容，不能为空或null。"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

func newChatRequest(model string, temperature float64, content string) chatRequest {
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: content},
		},
		Temperature: temperature,
	}
}
