package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"lumiere/internal/models"
)

const lessonPrompt = `为一名法语初学者（母语为中文）创建一节关于"%s"的法语课。
请返回严格有效的 JSON 格式。
包含以下内容：
1. 标题和等级（初学者/中级）。
2. 一段中文简介，解释我们将学到什么。
3. 5个词汇，包含法语单词、中文翻译、法语例句和中文发音提示。
4. 一个与主题相关的关键语法点（用中文解释规则，并提供示例）。
5. 2个测试理解能力的测验问题（问题可以是法语或混合语言）。`

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

var lessonSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":        str(),
		"level":        str(),
		"introduction": str(),
		"vocabulary": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"french":            str(),
					"chinese":           str(),
					"example":           str(),
					"pronunciation_tip": str(),
				},
			},
		},
		"grammar_point": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"rule":    str(),
				"example": str(),
			},
		},
		"quiz": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"question":     str(),
					"options":      {Type: genai.TypeArray, Items: str()},
					"correctIndex": {Type: genai.TypeInteger},
				},
			},
		},
	},
}

// GenerateLesson asks the lesson model for a beginner lesson on topicTitle
func (c *Client) GenerateLesson(ctx context.Context, topicTitle string) (*models.LessonContent, error) {
	model := c.opts.LessonModel
	prompt := genai.Text(fmt.Sprintf(lessonPrompt, topicTitle))
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   lessonSchema,
	}

	resp, err := c.call(ctx, model, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.genai.Models.GenerateContent(ctx, model, prompt, config)
	})
	if err != nil {
		return nil, err
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("failed to generate lesson content: %w", ErrNoContent)
	}
	return ParseLesson(text)
}

// ParseLesson decodes lesson JSON, tolerating markdown code fences around it
func ParseLesson(text string) (*models.LessonContent, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var lesson models.LessonContent
	if err := json.Unmarshal([]byte(cleaned), &lesson); err != nil {
		return nil, fmt.Errorf("failed to parse lesson content: %w", err)
	}
	if err := lesson.Validate(); err != nil {
		return nil, err
	}
	return &lesson, nil
}
