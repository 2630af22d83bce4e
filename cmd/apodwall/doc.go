// Command apodwall keeps a rotating desktop slideshow of NASA's Astronomy Picture
// of the Day.
//
// It downloads recent pictures into a local repository, keeps the ones that make
// good backgrounds, links them into an active set and writes a GNOME slideshow
// descriptor that the desktop can be pointed at.
package main
