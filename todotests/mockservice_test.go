package todotests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/todoapp/todo-contract-tests/client"
)

// mockTodoService is an in-process implementation of the Todo service
// contract, used to run the suite end to end without an external service. It
// keeps todos in insertion order and pushes a new_todo notification to every
// websocket subscriber on creation.
type mockTodoService struct {
	lock        sync.Mutex
	todos       []client.Todo
	subscribers []*websocket.Conn
	user        string
	password    string
	upgrader    websocket.Upgrader
}

func newMockTodoService(user, password string) *mockTodoService {
	return &mockTodoService{user: user, password: password}
}

func (s *mockTodoService) start() (*httptest.Server, client.ServiceConfig) {
	server := httptest.NewServer(s.handler())
	config := client.ServiceConfig{
		BaseURL:  server.URL,
		WSURL:    "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
		User:     s.user,
		Password: s.password,
	}
	return server, config
}

func (s *mockTodoService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /todos", s.listTodos)
	mux.HandleFunc("POST /todos", s.createTodo)
	mux.HandleFunc("GET /todos/{id}", s.getTodo)
	mux.HandleFunc("PUT /todos/{id}", s.updateTodo)
	mux.HandleFunc("DELETE /todos/{id}", s.deleteTodo)
	mux.HandleFunc("GET /ws", s.subscribe)
	return mux
}

func (s *mockTodoService) listTodos(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	todos := append([]client.Todo(nil), s.todos...)
	s.lock.Unlock()

	if value := r.URL.Query().Get("offset"); value != "" {
		offset, err := strconv.Atoi(value)
		if err != nil || offset < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		if offset > len(todos) {
			offset = len(todos)
		}
		todos = todos[offset:]
	}
	if value := r.URL.Query().Get("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit < len(todos) {
			todos = todos[:limit]
		}
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *mockTodoService) createTodo(w http.ResponseWriter, r *http.Request) {
	todo, ok := decodeTodoBody(w, r)
	if !ok {
		return
	}

	s.lock.Lock()
	for _, existing := range s.todos {
		if existing.ID == todo.ID {
			s.lock.Unlock()
			writeError(w, http.StatusBadRequest, fmt.Sprintf("todo with id %d already exists", todo.ID))
			return
		}
	}
	s.todos = append(s.todos, todo)
	s.broadcastLocked(map[string]interface{}{
		"type":      "new_todo",
		"id":        todo.ID,
		"text":      todo.Text,
		"completed": todo.Completed,
	})
	s.lock.Unlock()

	writeJSON(w, http.StatusCreated, todo)
}

func (s *mockTodoService) getTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, todo := range s.todos {
		if todo.ID == id {
			writeJSON(w, http.StatusOK, todo)
			return
		}
	}
	writeError(w, http.StatusNotFound, "no such todo")
}

func (s *mockTodoService) updateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	todo, ok := decodeTodoBody(w, r)
	if !ok {
		return
	}
	if todo.ID != id {
		writeError(w, http.StatusBadRequest, "id in body does not match id in path")
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i] = todo
			writeJSON(w, http.StatusOK, todo)
			return
		}
	}
	writeError(w, http.StatusNotFound, "no such todo")
}

func (s *mockTodoService) deleteTodo(w http.ResponseWriter, r *http.Request) {
	user, password, hasAuth := r.BasicAuth()
	if !hasAuth || user != s.user || password != s.password {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "no such todo")
}

func (s *mockTodoService) subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.lock.Lock()
	s.subscribers = append(s.subscribers, conn)
	s.lock.Unlock()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		s.lock.Lock()
		for i, c := range s.subscribers {
			if c == conn {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				break
			}
		}
		s.lock.Unlock()
		_ = conn.Close()
	}()
}

// broadcastLocked pushes a notification to every subscriber. The caller holds
// the lock, which also serializes writes on each connection.
func (s *mockTodoService) broadcastLocked(payload interface{}) {
	data, _ := json.Marshal(payload)
	for _, conn := range s.subscribers {
		_ = conn.WriteMessage(websocket.TextMessage, data)
	}
}

// decodeTodoBody validates that the request body is a JSON object with a
// numeric id, a string text, and a boolean completed, writing a 400 and
// returning false otherwise.
func decodeTodoBody(w http.ResponseWriter, r *http.Request) (client.Todo, bool) {
	var body ldvalue.Value
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Type() != ldvalue.ObjectType {
		writeError(w, http.StatusBadRequest, "request body is not a JSON object")
		return client.Todo{}, false
	}
	id := body.GetByKey("id")
	text := body.GetByKey("text")
	completed := body.GetByKey("completed")
	if id.Type() != ldvalue.NumberType {
		writeError(w, http.StatusBadRequest, "id must be a number")
		return client.Todo{}, false
	}
	if text.Type() != ldvalue.StringType {
		writeError(w, http.StatusBadRequest, "text must be a string")
		return client.Todo{}, false
	}
	if completed.Type() != ldvalue.BoolType {
		writeError(w, http.StatusBadRequest, "completed must be a boolean")
		return client.Todo{}, false
	}
	return client.Todo{
		ID:        int64(id.Float64Value()),
		Text:      text.StringValue(),
		Completed: completed.BoolValue(),
	}, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "no such todo")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
