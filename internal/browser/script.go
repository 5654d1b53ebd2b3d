// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package browser

import (
	"encoding/json"
	"fmt"
)

// idAttribute tags observed elements.
const idAttribute = "data-slashwrite-id"

// hookTemplate is installed into every new document. %s is the accept key
// as a JSON string.
const hookTemplate = `(() => {
	if (window.__slashwrite) return;
	const ACCEPT = %s;
	const sw = { queue: [], ready: null, tip: null, seq: 0, next: 1 };
	window.__slashwrite = sw;

	const editable = (ev) => {
		let el = ev.target;
		if (!(el instanceof Element)) return null;
		if (el.tagName === "INPUT" || el.tagName === "TEXTAREA") return el;
		return el.closest("[contenteditable], .ql-editor, .cm-editor") || el;
	};
	const describe = (el) => {
		if (!el.dataset.slashwriteId) {
			el.dataset.slashwriteId = (window.crypto && crypto.randomUUID) ? crypto.randomUUID() : "sw-" + (sw.next++);
		}
		return {
			id: el.dataset.slashwriteId,
			tag: el.tagName.toLowerCase(),
			type: el.getAttribute("type") || "",
			contentEditable: el.isContentEditable,
			classes: Array.from(el.classList),
		};
	};
	const push = (type, ev) => {
		const el = editable(ev);
		if (!el) return;
		sw.queue.push({ type: type, key: ev.key || "", surface: describe(el) });
	};

	document.addEventListener("keydown", (ev) => {
		const el = editable(ev);
		if (el && ev.key === ACCEPT && sw.ready !== null && el.dataset.slashwriteId === sw.ready) {
			ev.preventDefault();
			ev.stopPropagation();
		}
		push("keydown", ev);
	}, true);
	document.addEventListener("keyup", (ev) => push("keyup", ev), true);
	document.addEventListener("input", (ev) => push("input", ev), true);
})();`

// hookSource returns the injected script for acceptKey.
func hookSource(acceptKey string) string {
	key, _ := json.Marshal(acceptKey)
	return fmt.Sprintf(hookTemplate, key)
}

const drainSource = `() => {
	const sw = window.__slashwrite;
	if (!sw) return [];
	return sw.queue.splice(0);
}`

const readSource = `(id, rich) => {
	const el = document.querySelector('[` + idAttribute + `="' + CSS.escape(id) + '"]');
	if (!el) return null;
	return rich ? el.innerHTML : el.value;
}`

const writeSource = `(id, rich, value) => {
	const el = document.querySelector('[` + idAttribute + `="' + CSS.escape(id) + '"]');
	if (!el) return false;
	if (rich) {
		el.innerHTML = value;
	} else {
		el.value = value;
	}
	el.dispatchEvent(new Event("input", { bubbles: true }));
	return true;
}`

const showSource = `(id, text, hint) => {
	const sw = window.__slashwrite;
	if (!sw) return 0;
	if (sw.tip) sw.tip.el.remove();
	const target = document.querySelector('[` + idAttribute + `="' + CSS.escape(id) + '"]');
	const box = document.createElement("div");
	box.setAttribute("role", "tooltip");
	box.style.cssText = "position:fixed;z-index:2147483647;max-width:480px;max-height:40vh;overflow:auto;" +
		"padding:8px 10px;border-radius:6px;background:#1F2937;color:#F9FAFB;font:13px/1.4 sans-serif;" +
		"white-space:pre-wrap;box-shadow:0 4px 14px rgba(0,0,0,.35)";
	const body = document.createElement("div");
	body.textContent = text;
	const foot = document.createElement("div");
	foot.textContent = hint;
	foot.style.cssText = "margin-top:6px;opacity:.6;font-size:11px";
	box.append(body, foot);
	const r = target ? target.getBoundingClientRect() : { left: 8, bottom: 8 };
	box.style.left = Math.max(4, r.left) + "px";
	box.style.top = (r.bottom + 4) + "px";
	document.body.appendChild(box);
	sw.seq++;
	sw.tip = { seq: sw.seq, el: box };
	sw.ready = id;
	return sw.seq;
}`

const hideSource = `(seq) => {
	const sw = window.__slashwrite;
	if (!sw || !sw.tip || sw.tip.seq !== seq) return false;
	sw.tip.el.remove();
	sw.tip = null;
	sw.ready = null;
	return true;
}`
