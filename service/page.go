/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package service

import (
	"github.com/google/safehtml/template"
)

// pageData fills the chart page.
type pageData struct {
	SessionID string
	Query     string
	Help      []string
}

var helpText = []string{
	"Zoom: Mousewheel or Shift + Click + Drag",
	"Pan: Ctrl + Click + Drag",
	"Reset: r Key",
}

// page is the chart page.  Its script forwards the query, key presses,
// gestures and the chart's width to the session, and shows the chart the
// session draws.
var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>logsplorer</title>
<style>
body { background: #121212; color: white; font-family: sans-serif; margin: 0; }
main { padding: 16px; }
form { display: flex; gap: 8px; margin-bottom: 12px; }
#query { flex: 1; background: #1e1e1e; color: white; border: 1px solid #444; padding: 6px; }
#chart { display: block; width: 100%; height: 300px; user-select: none; touch-action: none; }
#error { color: #ff8080; min-height: 1.2em; }
#help { color: #aaaaaa; font-size: small; list-style: none; padding: 0; }
</style>
</head>
<body>
<main id="app" data-session="{{.SessionID}}" data-query="{{.Query}}">
<form id="query-form">
<input id="query" name="q" placeholder="filenames=run.log&amp;objective&lt;3" autocomplete="off">
<button type="submit">Plot</button>
</form>
<div id="error"></div>
<div id="container"><img id="chart" alt="chart" draggable="false"></div>
<ul id="help">
{{range .Help}}<li>{{.}}</li>
{{end}}</ul>
</main>
<script>
(function() {
  var app = document.getElementById('app');
  var base = '/api/session/' + app.dataset.session;
  var img = document.getElementById('chart');
  var container = document.getElementById('container');
  var errorBox = document.getElementById('error');
  var input = document.getElementById('query');
  var drag = null;
  var pinch = null;

  function redraw() {
    img.src = base + '/chart.png?width=' + Math.round(container.clientWidth) + '&t=' + Date.now();
  }

  function showStatus(status) {
    errorBox.textContent = status.last_error ? status.last_error + ' (showing previous results)' : '';
  }

  function post(path, body, type) {
    return fetch(base + path, {method: 'POST', headers: {'Content-Type': type}, body: body});
  }

  function sendEvent(ev) {
    post('/events', JSON.stringify(ev), 'application/json').then(redraw);
  }

  function modifiers(e) {
    return {ctrl: e.ctrlKey, shift: e.shiftKey, alt: e.altKey, meta: e.metaKey};
  }

  function offset(e) {
    var r = img.getBoundingClientRect();
    return {x: e.clientX - r.left, y: e.clientY - r.top};
  }

  function runQuery(q) {
    post('/query', new URLSearchParams({q: q}).toString(), 'application/x-www-form-urlencoded')
      .then(function(resp) { return fetch(base + '/status'); })
      .then(function(resp) { return resp.json(); })
      .then(function(status) { showStatus(status); redraw(); });
  }

  document.getElementById('query-form').addEventListener('submit', function(e) {
    e.preventDefault();
    runQuery(input.value);
  });

  window.addEventListener('keypress', function(e) {
    if (e.target === input) {
      return;
    }
    sendEvent(Object.assign({type: 'keypress', key: e.key}, modifiers(e)));
  });

  img.addEventListener('mousedown', function(e) {
    drag = {start: offset(e), mods: modifiers(e)};
  });

  window.addEventListener('mouseup', function(e) {
    if (drag === null) {
      return;
    }
    var end = offset(e);
    var ev = Object.assign({type: 'drag', start_x: drag.start.x, start_y: drag.start.y, end_x: end.x, end_y: end.y}, drag.mods);
    drag = null;
    sendEvent(ev);
  });

  img.addEventListener('wheel', function(e) {
    e.preventDefault();
    var p = offset(e);
    sendEvent(Object.assign({type: 'wheel', x: p.x, y: p.y, delta_y: e.deltaY}, modifiers(e)));
  }, {passive: false});

  function touchState(e) {
    var r = img.getBoundingClientRect();
    var a = e.touches[0];
    var b = e.touches[1];
    return {
      x: (a.clientX + b.clientX) * 0.5 - r.left,
      y: (a.clientY + b.clientY) * 0.5 - r.top,
      distance: Math.hypot(a.clientX - b.clientX, a.clientY - b.clientY)
    };
  }

  img.addEventListener('touchstart', function(e) {
    if (e.touches.length === 2) {
      e.preventDefault();
      pinch = touchState(e);
    }
  }, {passive: false});

  img.addEventListener('touchmove', function(e) {
    if (pinch === null || e.touches.length !== 2) {
      return;
    }
    e.preventDefault();
    var now = touchState(e);
    if (now.distance === 0 || pinch.distance === 0) {
      return;
    }
    var scale = now.distance * Math.pow(pinch.distance, -1);
    if (Math.abs(scale - 1) > 0.05) {
      pinch = now;
      sendEvent({type: 'pinch', x: now.x, y: now.y, scale: scale});
    }
  }, {passive: false});

  function endPinch(e) {
    if (e.touches.length !== 2) {
      pinch = null;
    }
  }
  img.addEventListener('touchend', endPinch);
  img.addEventListener('touchcancel', endPinch);

  window.addEventListener('resize', redraw);

  if (app.dataset.query) {
    input.value = app.dataset.query;
    runQuery(app.dataset.query);
  } else {
    redraw();
  }
})();
</script>
</body>
</html>
`))
