package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"beltline.ai/internal/protocol"
)

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/build", "build ws url")
		name    = flag.String("name", "bot", "client name")
		layout  = flag.String("layout", "./configs/layouts/iron_line.yaml", "layout yaml to place")
		timeout = flag.Duration("timeout", 30*time.Second, "give up waiting for results after this long")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	l, err := loadLayout(*layout)
	if err != nil {
		logger.Fatalf("layout: %v", err)
	}
	msgs := l.placeMessages()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil || welcome.Type != protocol.TypeWelcome {
		logger.Fatalf("expected WELCOME: %v", err)
	}
	logger.Printf("WELCOME session=%s world=%s tick=%d structures=%v", welcome.SessionID, welcome.WorldID, welcome.Tick, welcome.Catalogs.Structures)

	for _, m := range msgs {
		if err := conn.WriteJSON(m); err != nil {
			logger.Fatalf("send PLACE %s: %v", m.Ref, err)
		}
	}

	byRef := make(map[string]protocol.PlaceMsg, len(msgs))
	for _, m := range msgs {
		byRef[m.Ref] = m
	}
	failed := 0
	_ = conn.SetReadDeadline(time.Now().Add(*timeout))
	for len(byRef) > 0 {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Fatalf("read: %v (%d results missing)", err, len(byRef))
		}
		var res protocol.ResultMsg
		if err := json.Unmarshal(raw, &res); err != nil || res.Type != protocol.TypeResult {
			continue
		}
		m, ok := byRef[res.Ref]
		if !ok {
			continue
		}
		delete(byRef, res.Ref)
		if res.OK {
			logger.Printf("%s %s at %v -> E%d", res.Ref, m.Structure, m.Pos, res.Entity)
			continue
		}
		failed++
		logger.Printf("%s %s at %v failed: %s %s", res.Ref, m.Structure, m.Pos, res.Code, res.Message)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
