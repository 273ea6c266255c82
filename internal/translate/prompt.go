package translate

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var promptSource string

var promptTemplate = template.Must(template.New("prompt").Parse(promptSource))

type term struct {
	Source string
	Target string
}

// glossary pins the renderings of recurring terms.
var glossary = []term{
	{"礼佛大忏悔文", "Lễ Phật Đại Sám Hối Văn"},
	{"女听众", "Nữ Thính Giả"},
	{"台长答", "Đài Trưởng đáp"},
	{"小房子", "Ngôi Nhà Nhỏ"},
	{"冰山地狱", "Địa Ngục Núi Băng"},
	{"男聽眾", "Nam Thính Giả"},
	{"圖騰", "Đồ Đằng"},
	{"靈性", "Vong Linh"},
	{"聽眾", "Thính Giả"},
	{"好好修", "Cứ chăm chỉ tu hành"},
	{"誓願", "thệ nguyện"},
	{"一門精進", "Nhất Môn Tinh Tấn"},
	{"大悲神咒", "Chú Đại Bi"},
	{"諸佛國者", "các cõi Phật"},
	{"众生", "chúng sinh"},
	{"卢军宏", "Lư Quân Hoành"},
	{"要经者", "Người cần Kinh"},
	{"师兄", "Sư Huynh"},
}

// renderPrompt embeds text verbatim into the translation instructions.
func renderPrompt(text string) (string, error) {
	var sb strings.Builder
	err := promptTemplate.Execute(&sb, struct {
		Glossary []term
		Text     string
	}{glossary, text})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
