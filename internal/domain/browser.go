package domain

// BrowserSurface is one page of the embedded browser.
type BrowserSurface interface {
	LoadURL(url string)
	Close()
}

// Browser creates surfaces. An input-aware surface asks takesInput before it
// grabs keyboard and mouse focus from the host.
type Browser interface {
	CreateTab(url string) (BrowserSurface, error)
	CreateInputAwareTab(url string, takesInput func() bool) (BrowserSurface, error)
}
