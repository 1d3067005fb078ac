// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package httpapi

import "net/http"

// Router builds the net/http.ServeMux for every route these handlers serve.
// It is the caller's responsibility to wrap it with whatever middleware
// (auth, logging, recovery) the deployment needs.
func (h *Handlers) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/handles", h.HandleCreate)
	mux.HandleFunc("/handles/{handle}/sync", h.HandleRegister)
	mux.HandleFunc("/handles/{handle}/push", h.HandlePush)
	mux.HandleFunc("/handles/{handle}/results", h.HandleResults)
	mux.HandleFunc("/handles/{handle}", h.HandleClose)
	return mux
}
