package server

import (
	"context"
	"net/http"
	"path"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"caseline/internal/signing"
)

// NDA signing endpoints. All of them act on the authenticated manager's pin;
// there is no way to sign on someone else's behalf.
func registerSigning(api huma.API, w *signing.Workflow) {
	type payloadBody struct {
		Name         string `json:"name" minLength:"1"`
		Signature    string `json:"signature" minLength:"1"`
		Date         string `json:"date" minLength:"1"`
		Acknowledged bool   `json:"acknowledged"`
	}
	toPayload := func(b payloadBody) signing.SignaturePayload {
		return signing.SignaturePayload{Name: b.Name, Signature: b.Signature, Date: b.Date}
	}

	huma.Register(api, huma.Operation{
		OperationID: "nda-continue",
		Method:      http.MethodPost,
		Path:        "/nda/continue",
		Summary:     "Validate readiness to sign the NDA",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := w.ContinueToSign(ctx, pin); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ready"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "nda-preview",
		Method:        http.MethodPost,
		Path:          "/nda/preview",
		Summary:       "Generate a stamped NDA preview",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		Body payloadBody
	}) (*struct {
		Body signing.PreviewInfo `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		info, err := w.GeneratePreview(ctx, pin, toPayload(input.Body), input.Body.Acknowledged)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body signing.PreviewInfo `json:"body"`
		}{Body: info}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "nda-sign",
		Method:      http.MethodPost,
		Path:        "/nda/sign",
		Summary:     "Finalize the NDA signature",
	}, func(ctx context.Context, input *struct {
		Body struct {
			Confirmed bool `json:"confirmed"`
		}
	}) (*struct {
		Body signing.SignResult `json:"body"`
	}, error) {
		pin, authErr := pinFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		res, err := w.FinalizeSign(ctx, pin, input.Body.Confirmed)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body signing.SignResult `json:"body"`
		}{Body: res}, nil
	})
}

// The PDF bodies are served outside Huma so they stream as raw
// application/pdf.
func registerSigningDownloads(r chi.Router, basePath string, w *signing.Workflow) {
	servePDF := func(rw http.ResponseWriter, data []byte, name string) {
		rw.Header().Set("Content-Type", "application/pdf")
		rw.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
		rw.Write(data)
	}

	r.Get(path.Join(basePath, "nda/preview.pdf"), func(rw http.ResponseWriter, req *http.Request) {
		pin, authErr := pinFromContext(req.Context())
		if authErr != nil {
			respondStatusError(rw, authErr)
			return
		}
		data, err := w.Preview(pin)
		if err != nil {
			respondStatusError(rw, handleError(err))
			return
		}
		servePDF(rw, data, "caseManagersNda"+pin+".pdf")
	})

	r.Get(path.Join(basePath, "nda/signed.pdf"), func(rw http.ResponseWriter, req *http.Request) {
		pin, authErr := pinFromContext(req.Context())
		if authErr != nil {
			respondStatusError(rw, authErr)
			return
		}
		data, err := w.SignedNda(req.Context(), pin)
		if err != nil {
			respondStatusError(rw, handleError(err))
			return
		}
		servePDF(rw, data, "signedCaseManagersNda"+pin+".pdf")
	})
}
