package repl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sync"

	"github.com/coyove/minilisp"
)

// Locked serializes access to one VirtualMachine so it can be shared by
// concurrent requests. Output printed by scripts is captured per call.
type Locked struct {
	mu  sync.Mutex
	vm  *minilisp.VirtualMachine
	out *bytes.Buffer
}

func NewLocked(opts ...minilisp.Option) *Locked {
	l := &Locked{out: &bytes.Buffer{}}
	l.vm = minilisp.New(append(opts, minilisp.WithStdout(l.out))...)
	return l
}

// EvalString evaluates src and returns its result together with whatever the
// script printed.
func (l *Locked) EvalString(src string) (v minilisp.Value, stdout string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Reset()
	v, err = l.vm.EvalString(src)
	return v, l.out.String(), err
}

// Globals returns name => rendered binding of every global.
func (l *Locked) Globals() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	m := map[string]string{}
	for k, b := range l.vm.Symbols().Globals() {
		m[k] = b.Value().String()
	}
	return m
}

type respStruct struct {
	Result string
	Stdout string
	Error  bool `json:",omitempty"`
}

// Handler serves a tiny debug REPL: GET renders a form, POST cmd=... evaluates
// and answers JSON, POST all=1 lists the global bindings.
func Handler(l *Locked, title string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			p := bytes.Buffer{}
			p.WriteString(`<!doctype html><html><meta charset="UTF-8"><title>REPL: ` + html.EscapeString(title) + `</title>
<style>
	body { font-size: 16px }
	* {box-sizing: border-box; font-family: monospace;}
	.results div:nth-child(even) {background: #eee}
	.results .result {margin-left:1em;white-space:pre-wrap}
</style>
<form onsubmit="var _=this;post('',{cmd:this.querySelector('#cmd').value},function(obj, data){
	var el = document.createElement('div');
	el.innerText = data.cmd + '\n' + obj.Stdout + obj.Result;
	el.className = 'result';
	_.nextElementSibling.insertBefore(el,_.nextElementSibling.firstChild)
});return false;">
<input id=cmd style="width:100%;padding:0.5em;margin:0.5em 0;font-size:16px">
<input type=submit style="display:none">
</form>
<div class=results></div>
<script>
function post(url, data, cb) {
	var xml = new XMLHttpRequest(), q = "";
	xml.onreadystatechange = function() {
		if (xml.readyState == 4 && xml.status == 200) cb(JSON.parse(xml.responseText), data)
	}
	xml.open("POST", url, true);
	xml.setRequestHeader('Content-Type', 'application/x-www-form-urlencoded');
	for (var k in data) if (data.hasOwnProperty(k)) q += '&' + k + '=' + encodeURIComponent(data[k]);
	xml.send(q);
}
</script>
<pre>`)
			for _, name := range minilisp.Builtins() {
				p.WriteString("\n" + html.EscapeString(name))
			}
			p.WriteString("</pre>")
			w.Header().Add("Content-Type", "text/html")
			w.Write(p.Bytes())
			return
		}

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if r.FormValue("all") != "" {
			keys := []map[string]string{}
			for k, v := range l.Globals() {
				keys = append(keys, map[string]string{"key": k, "doc": v})
			}
			buf, _ := json.Marshal(keys)
			w.Header().Add("Content-Type", "application/json")
			w.Write(buf)
			return
		}

		v, stdout, err := l.EvalString(r.FormValue("cmd"))
		resp := respStruct{Stdout: stdout, Result: fmt.Sprint(v)}
		if err != nil {
			resp.Result, resp.Error = err.Error(), true
		}
		buf, _ := json.Marshal(resp)
		w.Header().Add("Content-Type", "application/json")
		w.Write(buf)
	})
}

// Inject registers the debug REPL on mux at /debug/pprof/repl.
func Inject(mux *http.ServeMux, l *Locked, title string) {
	mux.Handle("/debug/pprof/repl", Handler(l, title))
}
