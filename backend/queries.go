package backend

// GraphQL documents for the backend contract. The blog selection mirrors
// what every feed query projects, so responses decode into model.Blog
// regardless of which root field carried them.

const blogSelection = `
      blogs {
        id
        title
        slug
        description
        image
        genre
        author {
          id
          name
          username
          image
          profileImage
        }
        createdAt
        updatedAt
        likesCount
        commentsCount
        bookmarksCount
        hasLiked
        hasBookmarked
      }
      pagination {
        currentPage
        totalPages
        totalCount
        hasNextPage
        hasPreviousPage
      }`

const userSelection = `
      id
      username
      email
      image
      profileImage
      createdAt`

const (
	BlogsQuery = `
  query GetBlogs($input: BlogsInput!) {
    blogs(input: $input) {` + blogSelection + `
    }
  }`

	ForYouBlogsQuery = `
  query GetForYouBlogs($input: BlogsInput!) {
    forYouBlogs(input: $input) {` + blogSelection + `
    }
  }`

	FollowingBlogsQuery = `
  query GetFollowingBlogs($input: BlogsInput!) {
    followingBlogs(input: $input) {` + blogSelection + `
    }
  }`

	MostLikedBlogsQuery = `
  query GetMostLikedBlogs($input: BlogsInput!) {
    mostLikedBlogs(input: $input) {` + blogSelection + `
    }
  }`

	MyBlogsQuery = `
  query GetMyBlogs($input: BlogsInput!) {
    myBlogs(input: $input) {` + blogSelection + `
    }
  }`

	BlogByIDQuery = `
  query GetBlog($id: Int!) {
    blog(id: $id) {
      id
      title
      slug
      description
      image
      genre
      author {
        id
        name
        username
        image
        profileImage
      }
      createdAt
      updatedAt
      likesCount
      commentsCount
      bookmarksCount
      hasLiked
      hasBookmarked
    }
  }`

	CurrentUserQuery = `
  query CurrentUser {
    currentUser {` + userSelection + `
    }
  }`

	RefreshTokenMutation = `
  mutation RefreshToken($refreshToken: String!) {
    refreshToken(refreshToken: $refreshToken) {
      __typename
      ... on AuthPayload {
        accessToken
        refreshToken
        user {` + userSelection + `
        }
      }
      ... on AuthError {
        message
        code
      }
    }
  }`

	LoginMutation = `
  mutation Login($email: String!, $password: String!) {
    login(email: $email, password: $password) {
      __typename
      ... on AuthPayload {
        accessToken
        refreshToken
        user {` + userSelection + `
        }
      }
      ... on AuthError {
        message
        code
      }
    }
  }`

	OauthLoginMutation = `
  mutation OauthLogin($provider: String!, $idToken: String!) {
    oauthLogin(provider: $provider, idToken: $idToken) {
      __typename
      ... on AuthPayload {
        accessToken
        refreshToken
        user {` + userSelection + `
        }
      }
      ... on AuthError {
        message
        code
      }
    }
  }`

	ToggleLikeMutation = `
  mutation ToggleLike($blogId: Int!) {
    toggleLike(blogId: $blogId)
  }`

	ToggleFollowMutation = `
  mutation ToggleFollow($followerId: Int!) {
    toggleFollow(followerId: $followerId)
  }`

	FollowerSuggestionsQuery = `
  query GetFollowerSuggestions($cursor: Int, $limit: Int!) {
    followerSuggestions(cursor: $cursor, limit: $limit) {
      users {
        id
        username
        fullName
        userBio
        email
        image
        profileImage
        isFollowing
        createdAt
      }
      nextCursor
    }
  }`

	CommentsByBlogIDQuery = `
  query GetCommentsByBlogId($blogId: Int!) {
    commentsByBlogId(blogId: $blogId) {
      id
      content
      blogId
      userId
      parentCommentId
      createdAt
      likeCount
      hasLiked
      replyCount
      user {
        id
        name
        username
        image
        profileImage
      }
      replies {
        id
        content
        blogId
        userId
        parentCommentId
        createdAt
        likeCount
        hasLiked
        replyCount
        user {
          id
          name
          username
          image
          profileImage
        }
      }
    }
  }`

	CreateCommentMutation = `
  mutation CreateComment($blogId: Int!, $content: String!, $parentCommentId: Int) {
    createComment(blogId: $blogId, content: $content, parentCommentId: $parentCommentId) {
      id
      content
      blogId
      userId
      parentCommentId
      createdAt
      likeCount
      hasLiked
      replyCount
      user {
        id
        name
        username
        image
        profileImage
      }
    }
  }`

	DeleteCommentMutation = `
  mutation DeleteComment($commentId: Int!) {
    deleteComment(commentId: $commentId)
  }`

	ToggleCommentLikeMutation = `
  mutation ToggleCommentLike($commentId: Int!) {
    toggleCommentLike(commentId: $commentId)
  }`

	CreateBlogMutation = `
  mutation CreateBlog($title: String!, $description: String, $content: JSON!, $image: Upload!, $genre: [String!]!) {
    createBlog(title: $title, description: $description, content: $content, image: $image, genre: $genre) {
      id
      title
      slug
      description
      image
      genre
      author {
        id
        name
        username
        image
        profileImage
      }
      createdAt
      updatedAt
      likesCount
      commentsCount
      bookmarksCount
      hasLiked
      hasBookmarked
    }
  }`
)
