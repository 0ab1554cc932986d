package helpers

import "testing"

func TestProxyManagerRotation(t *testing.T) {
	pm := NewProxyManager([]string{"10.0.0.1:8080", "ftp://bad", "", "https://10.0.0.2:443"}, "")
	if !pm.HasProxies() {
		t.Fatal("expected proxies")
	}

	first, _ := pm.GetCurrentProxy()
	if first != "http://10.0.0.1:8080" {
		t.Errorf("first proxy = %q", first)
	}
	pm.RotateProxy()
	second, _ := pm.GetCurrentProxy()
	if second != "https://10.0.0.2:443" {
		t.Errorf("second proxy = %q", second)
	}
	pm.RotateProxy()
	if again, _ := pm.GetCurrentProxy(); again != first {
		t.Errorf("rotation should wrap, got %q", again)
	}
}

func TestProxyManagerPinnedUserAgent(t *testing.T) {
	pm := NewProxyManager(nil, "options-observer/1.0")
	if pm.HasProxies() {
		t.Error("expected no proxies")
	}
	if ua := pm.GetUserAgent(); ua != "options-observer/1.0" {
		t.Errorf("user agent = %q", ua)
	}
	if p, err := pm.GetCurrentProxy(); p != "" || err != nil {
		t.Errorf("GetCurrentProxy = %q, %v", p, err)
	}
}
