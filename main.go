package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/mrsingh-rishi/voice-relay/config"
	"github.com/mrsingh-rishi/voice-relay/llm"
	"github.com/mrsingh-rishi/voice-relay/metrics"
	"github.com/mrsingh-rishi/voice-relay/relay"
	"github.com/mrsingh-rishi/voice-relay/stt"
	"github.com/mrsingh-rishi/voice-relay/tts"
)

type callRequest struct {
	To string `json:"to"`
}

type callResponse struct {
	SID     string `json:"sid,omitempty"`
	Message string `json:"message"`
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.ElevenLabsAPIKey == "" {
		log.Fatal("ELEVEN_LABS_API_KEY must be set")
	}

	met := metrics.New(prometheus.DefaultRegisterer)

	llmClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		log.Fatalf("openai client: %v", err)
	}
	ttsClient, err := tts.NewElevenLabsClient(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, cfg.ElevenLabsModelID)
	if err != nil {
		log.Fatalf("elevenlabs client: %v", err)
	}
	replier, err := relay.NewReplier(llmClient, ttsClient, cfg.AudioOutputDir, log.Default(), met)
	if err != nil {
		log.Fatalf("replier: %v", err)
	}

	var twilioClient *twilio.RestClient
	if cfg.CanDial() {
		twilioClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	} else {
		log.Println("Twilio credentials incomplete, outbound calling disabled")
	}

	app := fiber.New()

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// POST /call kicks off an outbound call and points its TwiML at /twiml.
	app.Post("/call", func(c *fiber.Ctx) error {
		if twilioClient == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "outbound calling not configured"})
		}
		var req callRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		if req.To == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "`to` field is required"})
		}

		params := &openapi.CreateCallParams{}
		params.SetTo(req.To)
		params.SetFrom(cfg.TwilioFromNumber)
		params.SetUrl(fmt.Sprintf("%stwiml", cfg.BaseURL))
		params.SetMethod("GET")

		resp, err := twilioClient.Api.CreateCall(params)
		if err != nil {
			log.Printf("twilio create call: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create call"})
		}
		return c.JSON(callResponse{SID: *resp.Sid, Message: "call initiated"})
	})

	// GET /twiml instructs the provider to open a bidirectional media stream
	// to /stream.
	app.Get("/twiml", func(c *fiber.Ctx) error {
		xml := fmt.Sprintf(`
<Response>
  <Connect>
    <Stream url="%sstream" bidirectional="true"/>
  </Connect>
</Response>`, cfg.BaseWSURL)
		c.Type("xml")
		return c.SendString(xml)
	})

	app.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Each accepted media stream connection becomes one relay session.
	app.Get("/stream", websocket.New(func(ws *websocket.Conn) {
		defer ws.Close()
		log.Println("stream connected")

		sttClient, err := stt.Dial("", cfg.DeepgramAPIKey, log.Default())
		if err != nil {
			log.Printf("session aborted: %v", err)
			return
		}

		sess := relay.NewSession(ws, sttClient, replier, relay.Options{
			StrictDecode: cfg.StrictDecode,
			MaxReplies:   cfg.MaxReplies,
			Logger:       log.Default(),
			Metrics:      met,
		})
		sess.Run(context.Background())
		log.Println("stream session ended")
	}))

	log.Printf("server listening on %s", cfg.HTTPAddress)
	log.Fatal(app.Listen(cfg.HTTPAddress))
}
