package auth

import (
	"html/template"
	"net/http"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/logger"
)

// resultPage is the page shown at the end of an authorization attempt. The
// flow usually runs in a popup: the page notifies the opener of the outcome
// and closes itself after a short countdown, falling back to a plain
// message when opened as a top-level navigation.
var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
  <h1>{{.Heading}}</h1>
  {{if .Detail}}<p>{{.Detail}}</p>{{end}}
  <p>This window will close in <span id="countdown">5</span> seconds.</p>
  <script>
    if (window.opener) {
      window.opener.postMessage("{{.Message}}", "*");
    }
    let remaining = 5;
    const timer = setInterval(() => {
      remaining -= 1;
      document.getElementById("countdown").textContent = remaining;
      if (remaining <= 0) {
        clearInterval(timer);
        window.close();
      }
    }, 1000);
  </script>
</body>
</html>
`))

type resultPageData struct {
	Title   string
	Heading string
	Detail  string
	Message string
}

// SuccessPage is rendered after a completed authorization.
func (f *Flow) SuccessPage(w http.ResponseWriter, r *http.Request) {
	f.renderResult(w, resultPageData{
		Title:   "Authorization success",
		Heading: "Authorization successful",
		Message: "authorization_success",
	})
}

// FailurePage is rendered when an authorization attempt fails; the cause
// arrives in the error query parameter.
func (f *Flow) FailurePage(w http.ResponseWriter, r *http.Request) {
	f.renderResult(w, resultPageData{
		Title:   "Authorization failure",
		Heading: "Authorization failed",
		Detail:  r.URL.Query().Get("error"),
		Message: "authorization_error",
	})
}

func (f *Flow) renderResult(w http.ResponseWriter, data resultPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := resultPage.Execute(w, data); err != nil {
		logger.Errorf("failed to render result page: %v", err)
	}
}
