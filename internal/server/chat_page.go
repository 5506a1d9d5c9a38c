// Package server serves the built-in chat page used to exercise the relay
// from a browser.
package server

import (
	"fmt"
	"net/http"

	"github.com/hackchat/relay/internal/logger"
)

// ChatPageHandler serves an HTML chat page for testing the relay. It
// provides a simple web interface to join a room, exchange messages, and
// watch the member list update as users come and go.
func ChatPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>HackChat</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        #users { color: #555; margin: 10px 0; }
        input[type="text"] {
            width: 200px;
            padding: 5px;
            margin-right: 10px;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status {
            margin: 10px 0;
            padding: 5px;
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>HackChat</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div id="joinForm">
        <input type="text" id="usernameInput" placeholder="Username">
        <input type="text" id="roomInput" placeholder="Room">
        <button id="joinButton" onclick="join()">Join</button>
    </div>

    <div id="users"></div>

    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
        <button id="leaveButton" onclick="leave()" disabled>Leave</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const usersDiv = document.getElementById('users');
        const messageInput = document.getElementById('messageInput');
        const sendButton = document.getElementById('sendButton');
        const leaveButton = document.getElementById('leaveButton');
        const statusDiv = document.getElementById('status');

        function addMessage(msg) {
            const messageElement = document.createElement('div');
            messageElement.style.margin = '5px 0';
            messageElement.style.padding = '3px';
            messageElement.innerHTML = '<strong>' + msg.sender + '</strong> <small>' + msg.timestamp + '</small>: ' + msg.text;
            messagesDiv.appendChild(messageElement);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            if (connected) {
                statusDiv.textContent = 'Connected';
                statusDiv.className = 'status connected';
                messageInput.disabled = false;
                sendButton.disabled = false;
                leaveButton.disabled = false;
            } else {
                statusDiv.textContent = 'Disconnected';
                statusDiv.className = 'status disconnected';
                messageInput.disabled = true;
                sendButton.disabled = true;
                leaveButton.disabled = true;
                usersDiv.textContent = '';
            }
        }

        function join() {
            const username = document.getElementById('usernameInput').value.trim();
            const room = document.getElementById('roomInput').value.trim();
            if (!username || !room) {
                return;
            }

            ws = new WebSocket('ws://' + location.host + '/ws');

            ws.onopen = function() {
                ws.send(JSON.stringify({event: 'joinRoom', data: {username: username, room: room}}));
                updateStatus(true);
            };

            ws.onmessage = function(event) {
                for (const line of event.data.split('\n')) {
                    const frame = JSON.parse(line);
                    if (frame.event === 'message') {
                        addMessage(frame.data);
                    } else if (frame.event === 'roomUsers') {
                        usersDiv.textContent = frame.data.room + ': ' +
                            frame.data.users.map(function(u) { return u.username; }).join(', ');
                    }
                }
            };

            ws.onclose = function() {
                updateStatus(false);
                ws = null;
            };
        }

        function leave() {
            if (ws) {
                ws.close();
            }
        }

        function sendMessage() {
            const text = messageInput.value.trim();
            if (text && ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({event: 'chatMessage', data: {text: text}}));
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		logger.Errorf("Error writing HTML response: %v", err)
	}
}
