package server

import (
	"encoding/json"

	"github.com/MushroomFleet/wingman-support/game"
)

// VariantData selects the attack pattern for the next activation.
type VariantData struct {
	Variant string `json:"variant"`
}

// SpawnData adds practice drones to the field.
type SpawnData struct {
	Count int `json:"count"`
}

// handleMessage processes a message from the client.
func (c *Client) handleMessage(msg ClientMessage) {
	// Recover from any panic to prevent disconnection
	defer func() {
		if r := recover(); r != nil {
			c.server.log.Error().Int("client", c.ID).Str("type", msg.Type).
				Interface("panic", r).Msg("panic in message handler")
		}
	}()

	switch msg.Type {
	case MsgTypeTrigger:
		c.handleTrigger()
	case MsgTypeVariant:
		c.handleVariant(msg.Data)
	case MsgTypeSpawn:
		c.handleSpawn(msg.Data)
	default:
		c.server.log.Warn().Str("type", msg.Type).Msg("unknown message type")
	}
}

// handleTrigger attempts to activate the wingman and tells the
// requesting client whether the activation was accepted.
func (c *Client) handleTrigger() {
	accepted := c.server.Trigger()
	c.reply(ServerMessage{
		Type: MsgTypeTriggerResult,
		Data: map[string]any{"accepted": accepted},
	})
}

// handleVariant switches the selected ability variant. Rejected while an
// activation is in flight.
func (c *Client) handleVariant(data json.RawMessage) {
	var vd VariantData
	if err := json.Unmarshal(data, &vd); err != nil {
		c.replyError("bad variant payload")
		return
	}
	variant, err := game.ParseVariant(vd.Variant)
	if err != nil {
		c.replyError(err.Error())
		return
	}

	if !c.server.SetVariant(variant) {
		c.replyError("variant locked while ability is active")
		return
	}
	c.server.log.Info().Str("variant", variant.String()).Int("client", c.ID).Msg("variant selected")
}

// handleSpawn adds drones to the demo field.
func (c *Client) handleSpawn(data json.RawMessage) {
	var sd SpawnData
	if err := json.Unmarshal(data, &sd); err != nil || sd.Count <= 0 {
		c.replyError("bad spawn payload")
		return
	}

	c.server.SpawnDrones(sd.Count)
}

// reply sends a message to this client only.
func (c *Client) reply(msg ServerMessage) {
	select {
	case c.send <- msg:
	default:
		// Client send channel is full; drop rather than stall.
	}
}

func (c *Client) replyError(text string) {
	c.reply(ServerMessage{
		Type: MsgTypeError,
		Data: map[string]any{"text": text},
	})
}

// Trigger is the manual activation entry point, callable from any input
// binding the host wires up. Reports whether the activation was
// accepted.
func (s *Server) Trigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	accepted := s.sim.Trigger()
	if accepted {
		s.log.Info().
			Str("variant", s.sim.wingman.Variant().String()).
			Int("targets", len(s.sim.wingman.Targets())).
			Msg("wingman activated")
	}
	return accepted
}

// SetVariant selects the attack pattern for the next activation.
func (s *Server) SetVariant(v game.Variant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.wingman.SetVariant(v)
}

// SpawnDrones adds up to count drones to the field.
func (s *Server) SpawnDrones(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < count; i++ {
		s.sim.spawnDrone()
	}
}
