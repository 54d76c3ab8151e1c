package letterboxd_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func followingPage(usernames ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, name := range usernames {
		fmt.Fprintf(&b, `<div class="person-summary"><a class="avatar" href="/%s/"><img/></a></div>`, name)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestFetchFriendsPaginatesAndExcludesSelf(t *testing.T) {
	site := newFakeSite()
	site.pages["/cinephile/following/page/1/"] = followingPage("alice", "cinephile", "bob")
	site.pages["/cinephile/following/page/2/"] = followingPage("carol", "alice")
	site.pages["/cinephile/following/page/3/"] = followingPage()
	client, _ := newTestClient(t, site)

	friends, err := client.FetchFriends(context.Background(), "cinephile")
	if err != nil {
		t.Fatalf("FetchFriends returned error: %v", err)
	}
	want := []string{"alice", "bob", "carol"}
	if len(friends) != len(want) {
		t.Fatalf("got %v, want %v", friends, want)
	}
	for i, name := range want {
		if friends[i] != name {
			t.Fatalf("got %v, want %v", friends, want)
		}
	}
}

func TestFetchFriendsRateLimitReturnsPartialList(t *testing.T) {
	site := newFakeSite()
	site.pages["/cinephile/following/page/1/"] = followingPage("alice")
	site.statuses["/cinephile/following/page/2/"] = http.StatusTooManyRequests
	client, _ := newTestClient(t, site)

	friends, err := client.FetchFriends(context.Background(), "cinephile")
	if err != nil {
		t.Fatalf("expected clean partial stop, got error: %v", err)
	}
	if len(friends) != 1 || friends[0] != "alice" {
		t.Fatalf("got %v, want [alice]", friends)
	}
}
