package oauth

import "github.com/dropDatabas3/littlejohn/internal/store/core"

// Outcome es el resultado explícito de los pasos de navegación del
// protocolo (/authorize y /approve). El transport decide cómo realizarlo;
// el invariante render-vs-redirect queda testeable sin capa HTTP:
// mientras no haya un redirect target confiable, el resultado es
// RenderError, nunca Redirect.
type Outcome interface{ isOutcome() }

// RenderError se muestra directamente al resource owner (sin redirect).
type RenderError struct {
	Status int
	Code   string
	Desc   string
}

// Redirect envía al user-agent al redirect_uri del client con los
// parámetros de resultado o error ya mergeados en el query string.
type Redirect struct {
	Location string
}

// ShowConsent entrega la Request pendiente y el Client al paso (externo)
// de renderizado de consentimiento.
type ShowConsent struct {
	Request *core.AuthRequest
	Client  *core.Client
}

func (RenderError) isOutcome() {}
func (Redirect) isOutcome()    {}
func (ShowConsent) isOutcome() {}
