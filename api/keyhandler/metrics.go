package keyhandler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var hostKeyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "keyhandler_hostkey_requests",
	Help: "Number of host key requests served, by outcome",
}, []string{"status"})

var verifyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "keyhandler_verify_requests",
	Help: "Number of signature verification requests, by outcome",
}, []string{"status"})

var signRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "keyhandler_sign_requests",
	Help: "Number of signing requests, by outcome",
}, []string{"status"})

var storedKeyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "keyhandler_stored_key_requests",
	Help: "Number of stored key fetches, by outcome",
}, []string{"status"})

var keyUploads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "keyhandler_key_uploads",
	Help: "Number of authorized key uploads, by outcome",
}, []string{"status"})
