// Package websocket provides live game updates over WebSocket.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State broadcasting after each change, including pair resolutions that
//     happen after the settle delay
//   - Moving watchers to a new session ID on restart or next level
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection has a read goroutine and a
// write goroutine; the hub's client map is guarded by a mutex so broadcasts
// may come from request handlers and engine timer callbacks alike.
//
// Message Protocol:
//
// Clients only listen. Every message is one JSON object:
//   - {"session_id": "...", "event": "state_update", "game_state": {...}}
//   - {"session_id": "...", "event": "match", "data": {engine event}}
//   - {"session_id": "...", "event": "session_replaced", "game_state": {...},
//     "data": {"previous_session_id": "..."}}
//
// Engine Integration:
//
// Hub.Observer returns a function suitable for engine.WithObserver. It
// forwards each engine event and then the session's fresh state, so a
// mismatch that flips cards back after the delay reaches the browser without
// polling.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	observer := hub.Observer(func(id string) (*engine.GameState, error) {
//		sess, err := sessions.Get(id)
//		if err != nil {
//			return nil, err
//		}
//		return sess.Engine.GetState(), nil
//	})
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
