package aisession

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// Voice activity detection tuning for telephone audio. Phone lines are
// noisy, so speech detection runs at low sensitivity with a short prefix
// and a long trailing silence before the turn is cut.
const (
	vadPrefixPaddingMs   = 20
	vadSilenceDurationMs = 500
)

var _ Opener = (*Client)(nil)

// Client opens live sessions against the Gemini API.
type Client struct {
	genai *genai.Client
	model string
	log   *slog.Logger
}

// NewClient builds a Client for the given model.
func NewClient(ctx context.Context, apiKey, model string, log *slog.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("aisession: new client: %w", unwrapAPIError(err))
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{genai: gc, model: model, log: log}, nil
}

// Connect opens a live audio conversation with the decision tool installed.
func (c *Client) Connect(ctx context.Context, systemPrompt string) (Session, error) {
	cfg := &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		Tools: []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        DecisionToolName,
				Description: "병원의 최종 수용/거절 결정을 기록합니다. 반드시 병원 측의 명확한 의사 확인 후 호출하세요.",
				Parameters:  convSchema(DecisionSchema()),
			}},
		}},
		RealtimeInputConfig: &genai.RealtimeInputConfig{
			AutomaticActivityDetection: &genai.AutomaticActivityDetection{
				StartOfSpeechSensitivity: genai.StartSensitivityLow,
				EndOfSpeechSensitivity:   genai.EndSensitivityLow,
				PrefixPaddingMs:          genai.Ptr[int32](vadPrefixPaddingMs),
				SilenceDurationMs:        genai.Ptr[int32](vadSilenceDurationMs),
			},
		},
	}

	live, err := c.genai.Live.Connect(ctx, c.model, cfg)
	if err != nil {
		return nil, fmt.Errorf("aisession: connect: %w", unwrapAPIError(err))
	}
	c.log.Debug("live session opened", "model", c.model)
	return &geminiSession{live: live, log: c.log}, nil
}

type geminiSession struct {
	live *genai.Session
	log  *slog.Logger
}

func (s *geminiSession) SendText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.live.SendClientContent(genai.LiveClientContentInput{
		Turns: []*genai.Content{
			{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}},
		},
		TurnComplete: genai.Ptr(true),
	})
	if err != nil {
		return fmt.Errorf("aisession: send text: %w", unwrapAPIError(err))
	}
	return nil
}

func (s *geminiSession) SendAudio(ctx context.Context, pcm []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.live.SendRealtimeInput(genai.LiveRealtimeInput{
		Media: &genai.Blob{
			Data:     pcm,
			MIMEType: "audio/pcm;rate=16000",
		},
	})
	if err != nil {
		return fmt.Errorf("aisession: send audio: %w", unwrapAPIError(err))
	}
	return nil
}

func (s *geminiSession) SendToolResult(ctx context.Context, call *ToolCall, result string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.live.SendToolResponse(genai.LiveToolResponseInput{
		FunctionResponses: []*genai.FunctionResponse{{
			ID:       call.ID,
			Name:     call.Name,
			Response: map[string]any{"result": result},
		}},
	})
	if err != nil {
		return fmt.Errorf("aisession: send tool result: %w", unwrapAPIError(err))
	}
	return nil
}

func (s *geminiSession) Events() iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		for {
			msg, err := s.live.Receive()
			if err != nil {
				yield(nil, fmt.Errorf("aisession: receive: %w", unwrapAPIError(err)))
				return
			}
			ev := convMessage(msg)
			if ev == nil {
				continue
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func (s *geminiSession) Close() error {
	return s.live.Close()
}

// convMessage flattens a server message. Returns nil for messages with
// nothing the caller acts on, such as setup acknowledgements.
func convMessage(msg *genai.LiveServerMessage) *Event {
	ev := &Event{}
	keep := false

	if sc := msg.ServerContent; sc != nil {
		if sc.Interrupted {
			ev.Interrupted = true
			keep = true
		}
		if sc.TurnComplete {
			ev.TurnComplete = true
			keep = true
		}
		if sc.ModelTurn != nil {
			for _, p := range sc.ModelTurn.Parts {
				if p.InlineData != nil && len(p.InlineData.Data) > 0 {
					ev.Audio = append(ev.Audio, p.InlineData.Data...)
					keep = true
				}
			}
		}
	}
	if tc := msg.ToolCall; tc != nil {
		for _, fc := range tc.FunctionCalls {
			ev.ToolCalls = append(ev.ToolCalls, &ToolCall{
				ID:        fc.ID,
				Name:      fc.Name,
				Arguments: fc.Args,
			})
			keep = true
		}
	}

	if !keep {
		return nil
	}
	return ev
}

func convSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       convSchema(schema.Items),
		Required:    schema.Required,
	}
	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = convSchema(prop)
		}
	}
	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
