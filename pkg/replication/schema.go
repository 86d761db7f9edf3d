package replication

// Relational layout of the warehouse. Column names match the staged document
// fields; no foreign keys are declared.
var schema = []struct {
	table string
	ddl   string
}{
	{"channels", `
CREATE TABLE IF NOT EXISTS channels (
  Channel_Name VARCHAR(150),
  Channel_Id VARCHAR(80) PRIMARY KEY,
  Subscribers BIGINT,
  Views BIGINT,
  Total_Videos INT,
  Channel_Description TEXT,
  Playlist_Id VARCHAR(80)
)`},
	{"playlists", `
CREATE TABLE IF NOT EXISTS playlists (
  Playlist_Id VARCHAR(100) PRIMARY KEY,
  Title VARCHAR(150),
  Channel_Id VARCHAR(80),
  Channel_Name VARCHAR(150),
  PublishedAt TIMESTAMP,
  Video_Count INT
)`},
	{"videos", `
CREATE TABLE IF NOT EXISTS videos (
  Channel_Name VARCHAR(150),
  Channel_Id VARCHAR(80),
  Video_Id VARCHAR(50) PRIMARY KEY,
  Title TEXT,
  Tags TEXT,
  Thumbnail TEXT,
  Description TEXT,
  Published_Date TIMESTAMP,
  Duration TEXT,
  Views BIGINT,
  Likes BIGINT,
  Comments BIGINT,
  Favorite_Count BIGINT,
  Definition VARCHAR(20),
  Caption_Status VARCHAR(50)
)`},
	{"comments", `
CREATE TABLE IF NOT EXISTS comments (
  Comment_Id VARCHAR(100) PRIMARY KEY,
  Video_Id VARCHAR(50),
  Comment_Text TEXT,
  Comment_Author TEXT,
  Comment_Published TIMESTAMP
)`},
}

const (
	insertChannel = `
INSERT INTO channels (Channel_Name, Channel_Id, Subscribers, Views, Total_Videos, Channel_Description, Playlist_Id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (Channel_Id) DO NOTHING`

	insertPlaylist = `
INSERT INTO playlists (Playlist_Id, Title, Channel_Id, Channel_Name, PublishedAt, Video_Count)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (Playlist_Id) DO NOTHING`

	insertVideo = `
INSERT INTO videos (Channel_Name, Channel_Id, Video_Id, Title, Tags, Thumbnail, Description, Published_Date,
  Duration, Views, Likes, Comments, Favorite_Count, Definition, Caption_Status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (Video_Id) DO NOTHING`

	insertComment = `
INSERT INTO comments (Comment_Id, Video_Id, Comment_Text, Comment_Author, Comment_Published)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (Comment_Id) DO NOTHING`
)
