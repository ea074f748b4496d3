package main

import (
	"bufio"
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"time"
)

// ReqCache replays upstream responses from the store until they expire.
// A nil ReqCache fetches directly.
type ReqCache struct {
	store   *Store
	metrics *Metrics
	log     *log.Logger
}

func NewReqCache(store *Store, metrics *Metrics) *ReqCache {
	return &ReqCache{
		store:   store,
		metrics: metrics,
		log:     log.New(os.Stderr, "(cache) ", log.LstdFlags),
	}
}

func (rc *ReqCache) purgeExpired(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		rc.store.DeleteBefore(time.Now().Unix())
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func requestHash(req *http.Request) string {
	reqBytes, _ := httputil.DumpRequest(req, true)
	md5Hash := md5.Sum(reqBytes)
	return hex.EncodeToString(md5Hash[:])
}

func (rc *ReqCache) CachedFetch(req *http.Request, client *http.Client, ttl int) (*http.Response, error) {
	if rc == nil || ttl <= 0 {
		return client.Do(req)
	}
	reqHash := requestHash(req)
	data, ok := rc.store.GetResponse(reqHash, time.Now().Unix())
	if ok {
		res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), req)
		if err == nil {
			rc.metrics.CacheResult(true)
			return res, nil
		}
		rc.log.Println("Problems decoding cached result", err.Error())
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	rc.metrics.CacheResult(false)
	rc.log.Println("MISS", req.URL.Host, req.URL.Path)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, nil
	}
	respBytes, err := httputil.DumpResponse(resp, true)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	rc.store.StoreResponse(reqHash, respBytes, time.Now().Unix()+int64(ttl))
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(respBytes)), req)
}
