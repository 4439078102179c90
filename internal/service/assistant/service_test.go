package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"nirmana-assistant/internal/i18n"
)

type fakeModels struct {
	contentResp *genai.GenerateContentResponse
	contentErr  error
	imagesResp  *genai.GenerateImagesResponse
	imagesErr   error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	imageCfg *genai.GenerateImagesConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, cfg
	return f.contentResp, f.contentErr
}

func (f *fakeModels) GenerateImages(_ context.Context, model, _ string, cfg *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.model, f.imageCfg = model, cfg
	return f.imagesResp, f.imagesErr
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	c := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		c.Parts = append(c.Parts, genai.NewPartFromText(p))
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: c}}}
}

func systemText(cfg *genai.GenerateContentConfig) string {
	if cfg == nil || cfg.SystemInstruction == nil || len(cfg.SystemInstruction.Parts) == 0 {
		return ""
	}
	return cfg.SystemInstruction.Parts[0].Text
}

func TestSendTextMessage_Success(t *testing.T) {
	f := &fakeModels{contentResp: textResponse("Bengaluru is ", "the IT hub.")}
	s := New(f, Config{})

	reply := s.SendTextMessage(context.Background(), "Tell me about Bengaluru", i18n.English)

	if reply.Text != "Bengaluru is the IT hub." {
		t.Errorf("unexpected reply %q", reply.Text)
	}
	if f.model != "gemini-2.5-flash" {
		t.Errorf("expected default chat model, got %s", f.model)
	}
	if !strings.Contains(systemText(f.config), "Karnataka Industrial Hubs Knowledge Base") {
		t.Error("expected knowledge base in system instruction")
	}
	if strings.Contains(systemText(f.config), "Kannada language") {
		t.Error("expected no Kannada directive for English")
	}
	if len(f.config.Tools) != 0 {
		t.Error("expected no tools without search grounding")
	}
}

func TestSendTextMessage_KannadaDirective(t *testing.T) {
	f := &fakeModels{contentResp: textResponse("ನಮಸ್ಕಾರ")}
	s := New(f, Config{})

	s.SendTextMessage(context.Background(), "hi", i18n.Kannada)

	if !strings.HasSuffix(systemText(f.config), kannadaDirective) {
		t.Error("expected Kannada directive appended to system instruction")
	}
}

func TestSendTextMessage_FailuresReturnApology(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeModels
		lang i18n.Language
	}{
		{"transport error", &fakeModels{contentErr: errors.New("boom")}, i18n.English},
		{"no candidates", &fakeModels{contentResp: &genai.GenerateContentResponse{}}, i18n.English},
		{"empty text", &fakeModels{contentResp: textResponse("")}, i18n.English},
		{"kannada apology", &fakeModels{contentErr: errors.New("boom")}, i18n.Kannada},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := New(tt.f, Config{}).SendTextMessage(context.Background(), "hi", tt.lang)
			if reply.Text != i18n.T(tt.lang, i18n.TextError) {
				t.Errorf("expected apology, got %q", reply.Text)
			}
			if reply.Sources != nil {
				t.Error("expected no sources on failure")
			}
		})
	}
}

func TestSendTextMessage_GroundingSources(t *testing.T) {
	resp := textResponse("answer")
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A"}},
			{Web: &genai.GroundingChunkWeb{URI: "https://a.example", Title: "A again"}},
			{},
			{Web: &genai.GroundingChunkWeb{URI: "https://b.example", Title: "B"}},
		},
	}
	f := &fakeModels{contentResp: resp}
	s := New(f, Config{SearchGrounding: true})

	reply := s.SendTextMessage(context.Background(), "news", i18n.English)

	if len(f.config.Tools) != 1 || f.config.Tools[0].GoogleSearch == nil {
		t.Fatal("expected google search tool")
	}
	if len(reply.Sources) != 2 {
		t.Fatalf("expected 2 deduplicated sources, got %v", reply.Sources)
	}
	if reply.Sources[0].URI != "https://a.example" || reply.Sources[1].Title != "B" {
		t.Errorf("unexpected sources %v", reply.Sources)
	}
}

func TestGenerateImage(t *testing.T) {
	f := &fakeModels{imagesResp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte{0xff, 0xd8}}}},
	}}
	s := New(f, Config{})

	img := s.GenerateImage(context.Background(), "a factory at dawn")
	if img == nil {
		t.Fatal("expected image")
	}
	if img.MIMEType != "image/jpeg" {
		t.Errorf("expected jpeg default, got %s", img.MIMEType)
	}
	if f.imageCfg.NumberOfImages != 1 || f.imageCfg.AspectRatio != "1:1" || f.imageCfg.OutputMIMEType != "image/jpeg" {
		t.Errorf("unexpected image config %+v", f.imageCfg)
	}
	if f.model != "imagen-4.0-generate-001" {
		t.Errorf("unexpected model %s", f.model)
	}
}

func TestGenerateImage_FailureIsNil(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeModels
	}{
		{"error", &fakeModels{imagesErr: errors.New("quota")}},
		{"no images", &fakeModels{imagesResp: &genai.GenerateImagesResponse{}}},
		{"empty bytes", &fakeModels{imagesResp: &genai.GenerateImagesResponse{
			GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{}}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if img := New(tt.f, Config{}).GenerateImage(context.Background(), "x"); img != nil {
				t.Errorf("expected nil image, got %+v", img)
			}
		})
	}
}

func TestEditImage(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{
		Parts: []*genai.Part{
			genai.NewPartFromText("here you go"),
			genai.NewPartFromBytes([]byte{1, 2, 3}, "image/png"),
		},
	}}}}
	f := &fakeModels{contentResp: resp}
	s := New(f, Config{})

	img := s.EditImage(context.Background(), []byte{9}, "image/jpeg", "make it blue")
	if img == nil || img.MIMEType != "image/png" || len(img.Data) != 3 {
		t.Fatalf("unexpected image %+v", img)
	}
	if f.model != "gemini-2.5-flash-image" {
		t.Errorf("unexpected model %s", f.model)
	}
	if len(f.contents) != 1 || len(f.contents[0].Parts) != 2 {
		t.Fatalf("expected one content with image and prompt parts")
	}
	if f.contents[0].Parts[0].InlineData == nil || f.contents[0].Parts[1].Text != "make it blue" {
		t.Error("expected inline image followed by prompt")
	}
	if len(f.config.ResponseModalities) != 1 || f.config.ResponseModalities[0] != string(genai.ModalityImage) {
		t.Errorf("expected image modality, got %v", f.config.ResponseModalities)
	}
}

func TestEditImage_NoImagePartIsNil(t *testing.T) {
	f := &fakeModels{contentResp: textResponse("I can't do that")}
	if img := New(f, Config{}).EditImage(context.Background(), []byte{1}, "image/png", "x"); img != nil {
		t.Errorf("expected nil, got %+v", img)
	}
}

func TestImage_DataURLAndExtension(t *testing.T) {
	img := &Image{Data: []byte("hi"), MIMEType: "image/png"}
	if got := img.DataURL(); got != "data:image/png;base64,aGk=" {
		t.Errorf("unexpected data url %q", got)
	}
	if img.Extension() != ".png" {
		t.Errorf("unexpected extension %q", img.Extension())
	}
	if (&Image{MIMEType: "image/jpeg"}).Extension() != ".jpg" {
		t.Error("expected .jpg for jpeg")
	}
}
