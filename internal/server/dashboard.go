package server

// DashboardHTML is the single-page status dashboard. It loads counters from
// /api/stats and follows outcome events over /ws.
const DashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>httpcopy</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, monospace;
    background: #0d1117; color: #c9d1d9; padding: 20px;
  }
  h1 { color: #58a6ff; margin-bottom: 4px; font-size: 1.5em; }
  .subtitle { color: #8b949e; margin-bottom: 20px; font-size: 0.9em; }
  .status-bar {
    display: flex; gap: 20px; margin-bottom: 20px; padding: 12px 16px;
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
  }
  .status-item { display: flex; flex-direction: column; }
  .status-label { font-size: 0.75em; color: #8b949e; text-transform: uppercase; }
  .status-value { font-size: 1.1em; font-weight: 600; }
  .status-value.connected { color: #3fb950; }
  .status-value.disconnected { color: #f85149; }
  .stats {
    display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
    gap: 12px; margin-bottom: 20px;
  }
  .stat-card {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    padding: 16px; text-align: center;
  }
  .stat-number { font-size: 2em; font-weight: 700; }
  .stat-number.replayed { color: #3fb950; }
  .stat-number.failed { color: #f85149; }
  .stat-number.forwarded { color: #58a6ff; }
  .stat-number.quarantined { color: #d29922; }
  .stat-label { font-size: 0.8em; color: #8b949e; margin-top: 4px; }
  .event-log {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    max-height: 500px; overflow-y: auto;
  }
  .event-header {
    padding: 12px 16px; border-bottom: 1px solid #30363d;
    font-weight: 600; color: #58a6ff; position: sticky; top: 0;
    background: #161b22; display: flex; justify-content: space-between;
  }
  .event-row {
    display: grid; grid-template-columns: 120px 130px 1fr 90px 90px;
    padding: 8px 16px; border-bottom: 1px solid #21262d;
    font-size: 0.85em; align-items: center;
    animation: fadeIn 0.3s ease;
  }
  .event-row:hover { background: #1c2128; }
  .badge {
    display: inline-block; padding: 2px 8px; border-radius: 12px;
    font-size: 0.75em; font-weight: 600;
  }
  .badge.replayed { background: #23312e; color: #3fb950; }
  .badge.replay_failed { background: #3d1f20; color: #f85149; }
  .badge.forwarded { background: #1f2a3d; color: #58a6ff; }
  .badge.quarantined { background: #3b2e1a; color: #d29922; }
  .empty-state {
    text-align: center; padding: 60px 20px; color: #8b949e;
  }
  .empty-state .icon { font-size: 3em; margin-bottom: 10px; }
  .key-cell { color: #d2a8ff; }
  .endpoint-cell { color: #c9d1d9; }
  .time-cell { color: #8b949e; }
  #clear-btn {
    background: #21262d; color: #c9d1d9; border: 1px solid #30363d;
    padding: 4px 12px; border-radius: 4px; cursor: pointer; font-size: 0.8em;
  }
  #clear-btn:hover { background: #30363d; }
  @keyframes fadeIn { from { opacity: 0; transform: translateY(-4px); } to { opacity: 1; transform: translateY(0); } }
</style>
</head>
<body>
<h1>httpcopy</h1>
<p class="subtitle">Captured flows replayed against the shadow server</p>

<div class="status-bar">
  <div class="status-item">
    <span class="status-label">Connection</span>
    <span class="status-value disconnected" id="conn-status">Disconnected</span>
  </div>
  <div class="status-item">
    <span class="status-label">Shadow bytes</span>
    <span class="status-value" id="shadow-bytes">0</span>
  </div>
  <div class="status-item">
    <span class="status-label">Replay p90</span>
    <span class="status-value" id="latency-p90">-</span>
  </div>
</div>

<div class="stats">
  <div class="stat-card">
    <div class="stat-number forwarded" id="stat-forwarded">0</div>
    <div class="stat-label">Forwarded</div>
  </div>
  <div class="stat-card">
    <div class="stat-number replayed" id="stat-replayed">0</div>
    <div class="stat-label">Replayed</div>
  </div>
  <div class="stat-card">
    <div class="stat-number failed" id="stat-replay_failed">0</div>
    <div class="stat-label">Replay failed</div>
  </div>
  <div class="stat-card">
    <div class="stat-number quarantined" id="stat-quarantined">0</div>
    <div class="stat-label">Quarantined</div>
  </div>
</div>

<div class="event-log">
  <div class="event-header">
    <span>Live Events</span>
    <button id="clear-btn" onclick="clearEvents()">Clear</button>
  </div>
  <div id="events">
    <div class="empty-state">
      <div class="icon">&#9201;</div>
      <p>Waiting for scan outcomes...</p>
    </div>
  </div>
</div>

<script>
const counts = {forwarded: 0, replayed: 0, replay_failed: 0, quarantined: 0};
let shadowBytes = 0;
const eventsDiv = document.getElementById('events');
const MAX_EVENTS = 200;

function loadStats() {
  fetch('/api/stats').then(r => r.json()).then(s => {
    for (const k in counts) counts[k] = s.outcomes[k] || 0;
    shadowBytes = s.shadow_bytes || 0;
    if (s.latency && s.latency.count > 0) {
      document.getElementById('latency-p90').textContent = (s.latency.p90 / 1e6).toFixed(1) + ' ms';
    }
    updateStats();
  }).catch(() => {});
}

function connect() {
  const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  const ws = new WebSocket(proto + '//' + location.host + '/ws');

  ws.onopen = () => {
    document.getElementById('conn-status').textContent = 'Connected';
    document.getElementById('conn-status').className = 'status-value connected';
    loadStats();
  };

  ws.onclose = () => {
    document.getElementById('conn-status').textContent = 'Disconnected';
    document.getElementById('conn-status').className = 'status-value disconnected';
    setTimeout(connect, 2000);
  };

  ws.onmessage = (e) => {
    addEvent(JSON.parse(e.data));
  };
}

function addEvent(event) {
  const empty = eventsDiv.querySelector('.empty-state');
  if (empty) empty.remove();

  counts[event.kind] = (counts[event.kind] || 0) + 1;
  if (event.kind === 'replayed') shadowBytes += event.bytes || 0;
  updateStats();

  const row = document.createElement('div');
  row.className = 'event-row';

  const time = new Date(event.time).toLocaleTimeString('en-US', {hour12: false, hour:'2-digit', minute:'2-digit', second:'2-digit'});
  const badge = '<span class="badge ' + event.kind + '">' + event.kind.replace('_', ' ').toUpperCase() + '</span>';
  const detail = event.request_line || (event.files || []).join(' ');
  const extra = event.category || (event.error ? 'error' : (event.bytes ? event.bytes + ' B' : ''));
  const dur = event.duration ? (event.duration / 1e6).toFixed(1) + ' ms' : '';

  row.innerHTML =
    '<span class="time-cell">' + time + '</span>' +
    '<span>' + badge + '</span>' +
    '<span class="endpoint-cell">' + escHtml(detail) + '</span>' +
    '<span class="key-cell">' + escHtml(extra) + '</span>' +
    '<span>' + dur + '</span>';

  eventsDiv.insertBefore(row, eventsDiv.firstChild);

  while (eventsDiv.children.length > MAX_EVENTS) {
    eventsDiv.removeChild(eventsDiv.lastChild);
  }
}

function updateStats() {
  for (const k in counts) document.getElementById('stat-' + k).textContent = counts[k];
  document.getElementById('shadow-bytes').textContent = shadowBytes;
}

function clearEvents() {
  eventsDiv.innerHTML = '<div class="empty-state"><div class="icon">&#9201;</div><p>Waiting for scan outcomes...</p></div>';
}

function escHtml(s) {
  const d = document.createElement('div');
  d.textContent = s;
  return d.innerHTML;
}

connect();
</script>
</body>
</html>`
